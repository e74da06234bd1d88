package drive

import "testing"

func TestTypeString(t *testing.T) {
	cases := map[Type]string{SSD: "SSD", HDD: "HDD", Network: "Network", Unknown: "Unknown"}
	for typ, want := range cases {
		if got := typ.String(); got != want {
			t.Errorf("%v.String() = %q, want %q", typ, got, want)
		}
	}
}

func TestFromDiskTypeString(t *testing.T) {
	cases := []struct {
		in   string
		want Type
	}{
		{"Network+HDD", HDD},
		{"Network+SSD", SSD},
		{"garbage", Unknown},
	}
	for _, c := range cases {
		if got := FromDiskTypeString(c.in); got != c.want {
			t.Errorf("FromDiskTypeString(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}

func TestWorkerThreads(t *testing.T) {
	limits := DefaultLimits()

	if got := SSD.WorkerThreads(16, limits); got != 16 {
		t.Errorf("SSD should use all available threads, got %d", got)
	}
	if got := HDD.WorkerThreads(16, limits); got != limits.HDDMax {
		t.Errorf("HDD should cap at HDDMax=%d, got %d", limits.HDDMax, got)
	}
	if got := HDD.WorkerThreads(2, limits); got != 2 {
		t.Errorf("HDD with fewer available threads than the cap should use all available, got %d", got)
	}
	if got := Network.WorkerThreads(16, limits); got != limits.Floor {
		t.Errorf("Network's static worker count should be Floor=%d, got %d", limits.Floor, got)
	}
	if got := Unknown.WorkerThreads(16, limits); got != min(16, limits.UnknownMax) {
		t.Errorf("Unknown should cap at UnknownMax, got %d", got)
	}
}

func TestTunedChannelCap(t *testing.T) {
	if got := TunedChannelCap(SSD, 0); got != SSD.ChannelCap() {
		t.Errorf("no prior path count should fall back to the default cap, got %d", got)
	}
	if got := TunedChannelCap(HDD, 100); got != 100+ChannelCapMargin {
		t.Errorf("TunedChannelCap(HDD, 100) = %d, want %d", got, 100+ChannelCapMargin)
	}
	if got := TunedChannelCap(SSD, ChannelCapMax*2); got != ChannelCapMax {
		t.Errorf("TunedChannelCap should cap at ChannelCapMax, got %d", got)
	}
}
