package planner

import (
	"path/filepath"
	"regexp"
	"testing"
	"time"
)

func TestPlan(t *testing.T) {
	p := New(time.UTC)

	tests := []struct {
		epoch    int64
		filename string
		want     string
	}{
		{1609459200, "IMG_001.jpg", "2021/2021-01-01/IMG_001.jpg"},
		{1700000000, "IMG_001.JPG", "2023/2023-11-14/IMG_001.jpg"},
		{1557057600, "/src/deep/dir/clip.MP4", "2019/2019-05-05/clip.mp4"},
		{1557057600, "Mixed.Case.Name.HeIc", "2019/2019-05-05/Mixed.Case.Name.heic"},
		{1557057600, "noext", "2019/2019-05-05/noext"},
	}
	for _, tt := range tests {
		got := p.Plan(tt.epoch, tt.filename)
		if want := filepath.FromSlash(tt.want); got != want {
			t.Errorf("Plan(%d, %q) = %q, want %q", tt.epoch, tt.filename, got, want)
		}
	}
}

func TestPlan_Deterministic(t *testing.T) {
	p := New(time.UTC)
	pattern := regexp.MustCompile(`^(\d{4})/(\d{4})-(\d{2})-(\d{2})/[^/]+$`)

	for epoch := int64(946684801); epoch < 2000000000; epoch += 7777777 {
		a := p.Plan(epoch, "photo.JPEG")
		b := p.Plan(epoch, "photo.JPEG")
		if a != b {
			t.Fatalf("Plan(%d) not deterministic: %q vs %q", epoch, a, b)
		}
		m := pattern.FindStringSubmatch(filepath.ToSlash(a))
		if m == nil {
			t.Fatalf("Plan(%d) = %q does not match YYYY/YYYY-MM-DD/name", epoch, a)
		}
		if m[1] != m[2] {
			t.Errorf("Plan(%d) = %q: year folder differs from date folder", epoch, a)
		}
	}
}

func TestPlan_Location(t *testing.T) {
	// 2023-11-14T22:13:20Z is already the 15th in UTC+3.
	east := New(time.FixedZone("UTC+3", 3*60*60))
	if got, want := east.Plan(1700000000, "a.jpg"), filepath.FromSlash("2023/2023-11-15/a.jpg"); got != want {
		t.Errorf("Plan() = %q, want %q", got, want)
	}
}

func TestDir(t *testing.T) {
	if got, want := New(time.UTC).Dir(1609459200), filepath.FromSlash("2021/2021-01-01"); got != want {
		t.Errorf("Dir() = %q, want %q", got, want)
	}
}
