package stitch

import (
	"errors"
	"reflect"
	"testing"

	"vidstitch/internal/services"
)

func TestDistributeImagesManualGroups(t *testing.T) {
	clips := []ClipSpec{{Prompt: "foyer"}, {Prompt: "kitchen"}}
	groups := [][]string{{"foyer1.png", "foyer2.png"}, {"kitchen1.png"}}

	got, err := DistributeImages([]string{"unused.png"}, groups, clips)
	if err != nil {
		t.Fatalf("DistributeImages: %v", err)
	}
	if !reflect.DeepEqual(got, groups) {
		t.Fatalf("got %v, want groups verbatim", got)
	}
}

func TestDistributeImagesGroupCountMismatch(t *testing.T) {
	clips := []ClipSpec{{Prompt: "a"}, {Prompt: "b"}, {Prompt: "c"}}
	_, err := DistributeImages(nil, [][]string{{"one.png"}}, clips)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
}

func TestDistributeImagesKeywordMatching(t *testing.T) {
	images := []string{"shots/foyer1.png", "shots/foyer2.png", "shots/kitchen1.png"}
	clips := []ClipSpec{
		{Prompt: "camera pans across the foyer"},
		{Prompt: "slow dolly through the kitchen"},
	}

	got, err := DistributeImages(images, nil, clips)
	if err != nil {
		t.Fatalf("DistributeImages: %v", err)
	}
	want := [][]string{
		{"shots/foyer1.png", "shots/foyer2.png"},
		{"shots/kitchen1.png"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestDistributeImagesFallbackSharesAll(t *testing.T) {
	images := []string{"foyer1.png", "kitchen1.png"}
	clips := []ClipSpec{{Prompt: "a fox runs through a field"}}

	got, err := DistributeImages(images, nil, clips)
	if err != nil {
		t.Fatalf("DistributeImages: %v", err)
	}
	if !reflect.DeepEqual(got[0], images) {
		t.Fatalf("got %v, want every image when no keyword matches", got[0])
	}
}

func TestDistributeImagesNoImages(t *testing.T) {
	got, err := DistributeImages(nil, nil, threeClips())
	if err != nil {
		t.Fatalf("DistributeImages: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("got %d lists, want one per clip", len(got))
	}
	for i, list := range got {
		if len(list) != 0 {
			t.Errorf("clip %d images = %v, want none", i+1, list)
		}
	}
}
