package matcher

import (
	"os"
	"path/filepath"
	"testing"

	"media-organizer/internal/media"
)

func touch(t *testing.T, dir string, names ...string) {
	t.Helper()
	for _, name := range names {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(name), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func TestFind_Tiers(t *testing.T) {
	tests := []struct {
		name     string
		files    []string
		sidecar  string
		title    string
		want     string
		wantTier Tier
	}{
		{
			name:     "exact stem",
			files:    []string{"IMG_001.jpg"},
			sidecar:  "IMG_001.json",
			title:    "IMG_001.jpg",
			want:     "IMG_001.jpg",
			wantTier: TierSidecarStem,
		},
		{
			name:     "exact stem upper case extension",
			files:    []string{"IMG_002.MP4"},
			sidecar:  "IMG_002.json",
			title:    "whatever.mp4",
			want:     "IMG_002.MP4",
			wantTier: TierSidecarStem,
		},
		{
			name:     "takeout double extension",
			files:    []string{"IMG_003.jpg"},
			sidecar:  "IMG_003.jpg.json",
			title:    "",
			want:     "IMG_003.jpg",
			wantTier: TierSidecarStem,
		},
		{
			name:     "title stem",
			files:    []string{"Holiday.heic"},
			sidecar:  "metadata-42.json",
			title:    "Holiday.HEIC",
			want:     "Holiday.heic",
			wantTier: TierTitleStem,
		},
		{
			name:     "fuzzy substring",
			files:    []string{"Holiday(1).jpg", "notes.txt"},
			sidecar:  "metadata.json",
			title:    "Holiday.jpg",
			want:     "Holiday(1).jpg",
			wantTier: TierFuzzy,
		},
		{
			name:     "fuzzy picks lexically first",
			files:    []string{"b-Beach-edited.jpg", "a-Beach.png"},
			sidecar:  "x.json",
			title:    "Beach.jpg",
			want:     "a-Beach.png",
			wantTier: TierFuzzy,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			touch(t, dir, tt.files...)
			touch(t, dir, tt.sidecar)

			got, err := New(media.DefaultTypes(), nil).Find(filepath.Join(dir, tt.sidecar), tt.title)
			if err != nil {
				t.Fatalf("Find() error = %v", err)
			}
			if got.Path != filepath.Join(dir, tt.want) {
				t.Errorf("Path = %q, want %q", got.Path, filepath.Join(dir, tt.want))
			}
			if got.Tier != tt.wantTier {
				t.Errorf("Tier = %v, want %v", got.Tier, tt.wantTier)
			}
		})
	}
}

func TestFind_TierPrecedence(t *testing.T) {
	dir := t.TempDir()
	// Tier 1 match (.jpg) and tier 2 match (title stem, different extension).
	touch(t, dir, "IMG_001.jpg", "Sunset.mp4", "IMG_001.json", "Sunset-copy.png")

	got, err := New(media.DefaultTypes(), nil).Find(filepath.Join(dir, "IMG_001.json"), "Sunset.mp4")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got.Path != filepath.Join(dir, "IMG_001.jpg") || got.Tier != TierSidecarStem {
		t.Errorf("Find() = %+v, want tier 1 IMG_001.jpg", got)
	}

	// Without the tier 1 file, tier 2 beats the fuzzy candidate.
	if err := os.Remove(filepath.Join(dir, "IMG_001.jpg")); err != nil {
		t.Fatal(err)
	}
	got, err = New(media.DefaultTypes(), nil).Find(filepath.Join(dir, "IMG_001.json"), "Sunset.mp4")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got.Path != filepath.Join(dir, "Sunset.mp4") || got.Tier != TierTitleStem {
		t.Errorf("Find() = %+v, want tier 2 Sunset.mp4", got)
	}
}

func TestFind_TitleWithDirectories(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "album")
	if err := os.MkdirAll(filepath.Join(root, "elsewhere"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	touch(t, filepath.Join(root, "elsewhere"), "b.jpg")
	touch(t, dir, "meta.json")

	m := New(media.DefaultTypes(), nil)
	if got, err := m.Find(filepath.Join(dir, "meta.json"), "../elsewhere/b.jpg"); err == nil {
		t.Fatalf("Find() = %+v, must not leave the sidecar directory", got)
	}

	touch(t, dir, "b.jpg")
	got, err := m.Find(filepath.Join(dir, "meta.json"), "../elsewhere/b.jpg")
	if err != nil {
		t.Fatalf("Find() error = %v", err)
	}
	if got.Path != filepath.Join(dir, "b.jpg") || got.Tier != TierTitleStem {
		t.Errorf("Find() = %+v, want tier 2 album/b.jpg", got)
	}
}

func TestFind_NotFound(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "orphan.json", "other.jpg", "orphan.txt")
	if err := os.Mkdir(filepath.Join(dir, "orphan.jpg"), 0o755); err != nil {
		t.Fatal(err)
	}

	sidecarPath := filepath.Join(dir, "orphan.json")
	_, err := New(media.DefaultTypes(), nil).Find(sidecarPath, "orphan.jpg")
	if !IsMediaNotFound(err) {
		t.Fatalf("Find() error = %v, want *MediaNotFoundError", err)
	}
	nf := err.(*MediaNotFoundError)
	if nf.SidecarPath != sidecarPath || nf.Title != "orphan.jpg" {
		t.Errorf("error = %+v", nf)
	}
}

func TestFind_RestrictedTypes(t *testing.T) {
	dir := t.TempDir()
	touch(t, dir, "clip.mp4", "clip.json")

	m := New(media.NewTypes([]string{".jpg"}, nil), nil)
	if _, err := m.Path(filepath.Join(dir, "clip.json"), "clip.mp4"); !IsMediaNotFound(err) {
		t.Errorf("Path() error = %v, want not found with photo-only types", err)
	}
}

func TestTier_String(t *testing.T) {
	for tier, want := range map[Tier]string{
		TierSidecarStem: "sidecar-stem",
		TierTitleStem:   "title-stem",
		TierFuzzy:       "fuzzy",
		Tier(0):         "none",
	} {
		if got := tier.String(); got != want {
			t.Errorf("Tier(%d).String() = %q, want %q", int(tier), got, want)
		}
	}
}
