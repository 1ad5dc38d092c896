package movenet

import (
	"image"
	"math"
	"testing"
)

const epsilon = 1e-6

func almostEqual(a, b float32) bool {
	return math.Abs(float64(a)-float64(b)) < epsilon
}

func TestCropBox(t *testing.T) {
	tests := []struct {
		name          string
		width, height int
		want          Box
	}{
		{
			name:  "VGA landscape",
			width: 640, height: 480,
			want: Box{YMin: 0.125, XMin: 0, YMax: 0.875, XMax: 1},
		},
		{
			name:  "HD landscape",
			width: 1280, height: 720,
			want: Box{YMin: 0.21875, XMin: 0, YMax: 0.78125, XMax: 1},
		},
		{
			name:  "Square",
			width: 256, height: 256,
			want: Box{YMin: 0, XMin: 0, YMax: 1, XMax: 1},
		},
		{
			name:  "Portrait swaps axes",
			width: 480, height: 640,
			want: Box{YMin: 0, XMin: 0.125, YMax: 1, XMax: 0.875},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CropBox(tt.width, tt.height)
			if err != nil {
				t.Fatalf("CropBox(%d, %d) failed: %v", tt.width, tt.height, err)
			}
			for i, v := range got.Values() {
				if !almostEqual(v, tt.want.Values()[i]) {
					t.Fatalf("CropBox(%d, %d) = %s, want %s", tt.width, tt.height, got, tt.want)
				}
			}
			if err := got.Validate(); err != nil {
				t.Errorf("box is not valid: %v", err)
			}
		})
	}
}

func TestCropBoxInvariants(t *testing.T) {
	sizes := [][2]int{{640, 480}, {1920, 1080}, {320, 240}, {1001, 7}, {3, 2}}
	for _, s := range sizes {
		w, h := s[0], s[1]
		box, err := CropBox(w, h)
		if err != nil {
			t.Fatalf("CropBox(%d, %d) failed: %v", w, h, err)
		}
		if box.XMin != 0 || box.XMax != 1 {
			t.Errorf("CropBox(%d, %d): landscape must keep full width, got %s", w, h, box)
		}
		if span, want := box.YMax-box.YMin, float32(h)/float32(w); !almostEqual(span, want) {
			t.Errorf("CropBox(%d, %d): vertical span %v, want %v", w, h, span, want)
		}
		if center := (box.YMin + box.YMax) / 2; !almostEqual(center, 0.5) {
			t.Errorf("CropBox(%d, %d): vertical center %v, want 0.5", w, h, center)
		}
	}
}

func TestCropBoxInvalid(t *testing.T) {
	for _, s := range [][2]int{{0, 480}, {640, 0}, {-1, 10}} {
		if _, err := CropBox(s[0], s[1]); KindOf(err) != KindGeometry {
			t.Errorf("CropBox(%d, %d) error = %v, want geometry error", s[0], s[1], err)
		}
	}
}

func TestBoxValidate(t *testing.T) {
	tests := []struct {
		name    string
		box     Box
		wantErr bool
	}{
		{"Full", Box{0, 0, 1, 1}, false},
		{"Negative", Box{-0.1, 0, 1, 1}, true},
		{"Above one", Box{0, 0, 1.5, 1}, true},
		{"Empty", Box{0.5, 0, 0.5, 1}, true},
		{"Inverted", Box{0, 0.8, 1, 0.2}, true},
		{"NaN", Box{float32(math.NaN()), 0, 1, 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.box.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && KindOf(err) != KindGeometry {
				t.Errorf("Validate() kind = %v, want geometry", KindOf(err))
			}
		})
	}
}

func TestBoxRect(t *testing.T) {
	box, _ := CropBox(640, 480)
	got, err := box.Rect(640, 480)
	if err != nil {
		t.Fatal(err)
	}
	if want := image.Rect(0, 60, 640, 420); got != want {
		t.Errorf("Rect() = %v, want %v", got, want)
	}

	if _, err := box.Rect(0, 480); KindOf(err) != KindGeometry {
		t.Errorf("Rect() on empty image error = %v, want geometry error", err)
	}
}

func TestKeypointPoint(t *testing.T) {
	box := Box{YMin: 0.125, XMin: 0, YMax: 0.875, XMax: 1}
	got := KeypointPoint(Keypoint{Y: 0.5, X: 0.5}, box, 640, 480)
	if want := image.Pt(320, 240); got != want {
		t.Errorf("KeypointPoint() = %v, want %v", got, want)
	}
}
