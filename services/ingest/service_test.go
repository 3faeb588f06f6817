package ingest_test

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"testing"

	"tmovies/internal/imaging"
	"tmovies/internal/store"
	"tmovies/models"
	"tmovies/services/ingest"
	"tmovies/services/watched"
)

func makeJPEG(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("failed to encode test image: %v", err)
	}
	return buf.Bytes()
}

func newServices(t *testing.T) (*ingest.Service, *watched.Service, *store.Memory) {
	t.Helper()
	mem := store.NewMemory()
	watchedSvc, err := watched.NewService(context.Background(), mem)
	if err != nil {
		t.Fatalf("failed to create watched service: %v", err)
	}
	codec := imaging.NewCodec(imaging.Constraints{})
	return ingest.NewService(watchedSvc, codec, 5), watchedSvc, mem
}

func TestAttachCreatesTargetAndImages(t *testing.T) {
	svc, watchedSvc, _ := newServices(t)
	ctx := context.Background()

	target := ingest.Target{ID: 42, Type: models.MediaTypeMovie, Title: "Dune", PosterPath: "/dune.jpg"}
	files := []ingest.File{
		{Name: "premiere.jpg", Data: makeJPEG(t, 1600, 900)},
		{Name: "credits.jpg", Data: makeJPEG(t, 640, 480)},
	}

	if err := svc.Attach(ctx, target, files); err != nil {
		t.Fatalf("attach returned error: %v", err)
	}

	item, ok := watchedSvc.Get(42, models.MediaTypeMovie)
	if !ok {
		t.Fatal("expected target to be upserted before attaching")
	}
	if item.Title != "Dune" {
		t.Fatalf("expected upserted title, got %q", item.Title)
	}
	if len(item.Images) != 2 {
		t.Fatalf("expected 2 attached images, got %d", len(item.Images))
	}
	for _, img := range item.Images {
		if img.ID == "" || img.File == "" || img.DateAdded.IsZero() {
			t.Fatalf("expected fully populated image, got %+v", img)
		}
	}
}

func TestBatchOverCapIsRejectedBeforeStaging(t *testing.T) {
	svc, watchedSvc, mem := newServices(t)
	ctx := context.Background()

	target := ingest.Target{ID: 7, Type: models.MediaTypeTV, Title: "Severance"}
	photo := makeJPEG(t, 320, 240)

	var full []ingest.File
	for i := 0; i < 5; i++ {
		full = append(full, ingest.File{Name: "img.jpg", Data: photo})
	}
	if err := svc.Attach(ctx, target, full); err != nil {
		t.Fatalf("attach returned error: %v", err)
	}

	if err := svc.Attach(ctx, target, []ingest.File{{Name: "sixth.jpg", Data: photo}}); err == nil {
		t.Fatal("expected cap violation to reject the batch")
	}

	items, _ := mem.Load(ctx)
	if len(items[0].Images) != 5 {
		t.Fatalf("expected image count unchanged at 5, got %d", len(items[0].Images))
	}

	// A fresh target with an oversized batch is rejected before any
	// decode or upsert happens.
	fresh := ingest.Target{ID: 8, Type: models.MediaTypeTV, Title: "Counterpart"}
	var six []ingest.File
	for i := 0; i < 6; i++ {
		six = append(six, ingest.File{Name: "img.jpg", Data: photo})
	}
	if err := svc.Attach(ctx, fresh, six); err == nil {
		t.Fatal("expected oversized batch to be rejected")
	}
	if watchedSvc.IsWatched(8, models.MediaTypeTV) {
		t.Fatal("expected rejected batch to leave the target absent")
	}
}

func TestInvalidFileRejectsWholeBatch(t *testing.T) {
	svc, watchedSvc, _ := newServices(t)
	ctx := context.Background()

	target := ingest.Target{ID: 9, Type: models.MediaTypeMovie, Title: "Heat"}
	files := []ingest.File{
		{Name: "good.jpg", Data: makeJPEG(t, 640, 480)},
		{Name: "notes.txt", Data: []byte("not an image")},
	}

	if err := svc.Attach(ctx, target, files); err == nil {
		t.Fatal("expected invalid file to fail the batch")
	}
	if watchedSvc.IsWatched(9, models.MediaTypeMovie) {
		t.Fatal("expected zero images committed and no target created")
	}
}

func TestStagingWithoutCommitHasNoDurableEffect(t *testing.T) {
	svc, _, mem := newServices(t)
	ctx := context.Background()

	staged, err := svc.Stage(ctx, 0, []ingest.File{{Name: "maybe.jpg", Data: makeJPEG(t, 640, 480)}})
	if err != nil {
		t.Fatalf("stage returned error: %v", err)
	}
	if len(staged) != 1 {
		t.Fatalf("expected one staged image, got %d", len(staged))
	}

	items, _ := mem.Load(ctx)
	if len(items) != 0 {
		t.Fatalf("expected durable store untouched, got %d items", len(items))
	}
}

func TestStagePreservesInputOrder(t *testing.T) {
	svc, _, _ := newServices(t)

	files := []ingest.File{
		{Name: "first.jpg", Data: makeJPEG(t, 320, 240)},
		{Name: "second.jpg", Data: makeJPEG(t, 320, 240)},
		{Name: "third.jpg", Data: makeJPEG(t, 320, 240)},
	}
	staged, err := svc.Stage(context.Background(), 0, files)
	if err != nil {
		t.Fatalf("stage returned error: %v", err)
	}

	for i, f := range files {
		if staged[i].Name != f.Name {
			t.Fatalf("expected staged order to match input, got %q at %d", staged[i].Name, i)
		}
	}
}

func TestEndToEndScenario(t *testing.T) {
	svc, watchedSvc, mem := newServices(t)
	ctx := context.Background()

	if _, err := watchedSvc.Upsert(ctx, 42, models.MediaTypeMovie, "Dune", "/dune.jpg"); err != nil {
		t.Fatalf("upsert returned error: %v", err)
	}
	if err := watchedSvc.SetRating(ctx, 42, models.MediaTypeMovie, 5); err != nil {
		t.Fatalf("set rating returned error: %v", err)
	}

	target := ingest.Target{ID: 42, Type: models.MediaTypeMovie, Title: "Dune"}
	if err := svc.Attach(ctx, target, []ingest.File{{Name: "imax.jpg", Data: makeJPEG(t, 1600, 900)}}); err != nil {
		t.Fatalf("attach returned error: %v", err)
	}

	items, _ := mem.Load(ctx)
	if len(items) != 1 {
		t.Fatalf("expected one record, got %d", len(items))
	}
	if items[0].Rating != 5 || len(items[0].Images) != 1 {
		t.Fatalf("expected rating 5 with one image, got rating %d and %d images", items[0].Rating, len(items[0].Images))
	}

	if err := watchedSvc.Remove(ctx, 42, models.MediaTypeMovie); err != nil {
		t.Fatalf("remove returned error: %v", err)
	}
	items, _ = mem.Load(ctx)
	if len(items) != 0 {
		t.Fatalf("expected empty collection, got %d items", len(items))
	}
}
