package acquisition

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/Sternrassler/stade-map/pkg/facility"
	"github.com/Sternrassler/stade-map/pkg/partition"
	"github.com/Sternrassler/stade-map/pkg/progress"
)

// scriptedFetcher returns canned records per key and records the visit order.
type scriptedFetcher struct {
	records map[partition.Key][]facility.Record
	panicOn partition.Key
	visited []partition.Key
}

func (f *scriptedFetcher) FetchPartition(_ context.Context, key partition.Key) []facility.Record {
	f.visited = append(f.visited, key)
	if f.panicOn != "" && key == f.panicOn {
		panic("boom")
	}
	return f.records[key]
}

type recordingRenderer struct {
	calls   [][]facility.Record
	failFor int // fail the call with this 1-based index; 0 disables
	panic   bool
}

func (r *recordingRenderer) Render(_ context.Context, records []facility.Record) error {
	r.calls = append(r.calls, records)
	if r.failFor == len(r.calls) {
		if r.panic {
			panic("render exploded")
		}
		return errors.New("render failed")
	}
	return nil
}

type recordingSink struct {
	updates []progress.Update
	done    []progress.Summary
	panicAt int // panic on the update with this 1-based index; 0 disables
}

func (s *recordingSink) Step(_ context.Context, u progress.Update) {
	s.updates = append(s.updates, u)
	if s.panicAt == len(s.updates) {
		panic("sink exploded")
	}
}

func (s *recordingSink) Done(_ context.Context, sum progress.Summary) {
	s.done = append(s.done, sum)
}

func rec(name string) facility.Record {
	return facility.Record{Name: name, Latitude: 45, Longitude: 2}
}

func testConfig(keys ...partition.Key) Config {
	return Config{Keys: keys, Delay: 0, Fallback: facility.Fallback}
}

func TestRun_VisitsKeysInOrder(t *testing.T) {
	fetcher := &scriptedFetcher{records: map[partition.Key][]facility.Record{
		"01": {rec("a")},
		"2A": {rec("b"), rec("c")},
	}}
	renderer := &recordingRenderer{}
	sink := &recordingSink{}

	keys := []partition.Key{"01", "2A", "2B", "971"}
	out := New(fetcher, renderer, sink, testConfig(keys...)).Run(context.Background())

	if !reflect.DeepEqual(fetcher.visited, keys) {
		t.Errorf("visited = %v, want %v", fetcher.visited, keys)
	}
	if out.Source != progress.SourceLive {
		t.Errorf("Source = %s, want live", out.Source)
	}
	if out.Rendered != 3 || out.Partitions != 4 {
		t.Errorf("outcome = %+v", out)
	}
	if len(renderer.calls) != 1 {
		t.Fatalf("render calls = %d, want 1", len(renderer.calls))
	}

	var names []string
	for _, r := range renderer.calls[0] {
		names = append(names, r.Name)
	}
	if !reflect.DeepEqual(names, []string{"a", "b", "c"}) {
		t.Errorf("rendered = %v, want accumulation in key order", names)
	}
}

func TestRun_DefaultKeySpace(t *testing.T) {
	fetcher := &scriptedFetcher{}
	o := New(fetcher, &recordingRenderer{}, nil, Config{})

	o.Run(context.Background())

	if len(fetcher.visited) != 101 {
		t.Fatalf("visited %d partitions, want 101", len(fetcher.visited))
	}
	if fetcher.visited[19] != "2A" || fetcher.visited[100] != "976" {
		t.Errorf("unexpected order: [19]=%s [100]=%s", fetcher.visited[19], fetcher.visited[100])
	}
}

func TestRun_AllEmptyRendersFallbackOnly(t *testing.T) {
	renderer := &recordingRenderer{}
	sink := &recordingSink{}

	out := New(&scriptedFetcher{}, renderer, sink, testConfig("01", "02", "03")).Run(context.Background())

	if out.Source != progress.SourceFallback {
		t.Errorf("Source = %s, want fallback", out.Source)
	}
	if len(renderer.calls) != 1 {
		t.Fatalf("render calls = %d, want 1", len(renderer.calls))
	}

	rendered := renderer.calls[0]
	if len(rendered) != len(facility.Fallback()) {
		t.Errorf("rendered %d records, want the fallback set", len(rendered))
	}
	found := false
	for _, r := range rendered {
		if r.Name == "Stade de France, Saint-Denis" && r.Latitude == 48.9244 && r.Longitude == 2.3601 {
			found = true
		}
	}
	if !found {
		t.Error("fallback render is missing Stade de France")
	}
	if len(sink.done) != 1 || sink.done[0].Source != progress.SourceFallback {
		t.Errorf("done = %+v", sink.done)
	}
}

func TestRun_ZeroKeysRendersFallback(t *testing.T) {
	renderer := &recordingRenderer{}

	out := New(&scriptedFetcher{}, renderer, nil, Config{Keys: []partition.Key{}}).Run(context.Background())

	if out.Source != progress.SourceFallback || out.Partitions != 0 {
		t.Errorf("outcome = %+v", out)
	}
	if len(renderer.calls) != 1 {
		t.Errorf("render calls = %d, want 1", len(renderer.calls))
	}
}

func TestRun_ProgressOrdering(t *testing.T) {
	fetcher := &scriptedFetcher{records: map[partition.Key][]facility.Record{
		"01": {rec("a"), rec("b")},
		"03": {rec("c")},
	}}
	sink := &recordingSink{}

	New(fetcher, &recordingRenderer{}, sink, testConfig("01", "02", "03")).Run(context.Background())

	want := []progress.Update{
		{Index: 0, Total: 3, Key: "01", Count: 2},
		{Index: 1, Total: 3, Key: "02", Count: 2},
		{Index: 2, Total: 3, Key: "03", Count: 3},
	}
	if !reflect.DeepEqual(sink.updates, want) {
		t.Errorf("updates = %+v, want %+v", sink.updates, want)
	}
	if len(sink.done) != 1 {
		t.Fatalf("done called %d times, want 1", len(sink.done))
	}
	if sink.done[0].Records != 3 || sink.done[0].Source != progress.SourceLive {
		t.Errorf("summary = %+v", sink.done[0])
	}
}

func TestRun_FetcherPanicRendersFallback(t *testing.T) {
	fetcher := &scriptedFetcher{
		records: map[partition.Key][]facility.Record{"01": {rec("a")}},
		panicOn: "02",
	}
	renderer := &recordingRenderer{}
	sink := &recordingSink{}

	out := New(fetcher, renderer, sink, testConfig("01", "02", "03")).Run(context.Background())

	if out.Source != progress.SourceFallback {
		t.Errorf("Source = %s, want fallback", out.Source)
	}
	if len(renderer.calls) != 1 || len(renderer.calls[0]) != len(facility.Fallback()) {
		t.Errorf("expected a single fallback render, got %d calls", len(renderer.calls))
	}
	if len(sink.done) != 1 {
		t.Errorf("done called %d times, want 1", len(sink.done))
	}
}

func TestRun_SinkPanicRendersFallback(t *testing.T) {
	fetcher := &scriptedFetcher{records: map[partition.Key][]facility.Record{"01": {rec("a")}}}
	renderer := &recordingRenderer{}

	out := New(fetcher, renderer, &recordingSink{panicAt: 1}, testConfig("01", "02")).Run(context.Background())

	if out.Source != progress.SourceFallback {
		t.Errorf("Source = %s, want fallback", out.Source)
	}
	if len(renderer.calls) != 1 {
		t.Errorf("render calls = %d, want 1", len(renderer.calls))
	}
}

func TestRun_LiveRenderFailureRendersFallback(t *testing.T) {
	for _, panics := range []bool{false, true} {
		fetcher := &scriptedFetcher{records: map[partition.Key][]facility.Record{"01": {rec("a")}}}
		renderer := &recordingRenderer{failFor: 1, panic: panics}

		out := New(fetcher, renderer, nil, testConfig("01")).Run(context.Background())

		if out.Source != progress.SourceFallback {
			t.Errorf("panic=%v: Source = %s, want fallback", panics, out.Source)
		}
		if len(renderer.calls) != 2 {
			t.Fatalf("panic=%v: render calls = %d, want 2", panics, len(renderer.calls))
		}
		if len(renderer.calls[1]) != len(facility.Fallback()) {
			t.Errorf("panic=%v: second render is not the fallback", panics)
		}
	}
}

func TestRun_CancelledContextStillCompletes(t *testing.T) {
	fetcher := &scriptedFetcher{records: map[partition.Key][]facility.Record{"01": {rec("a")}}}
	renderer := &recordingRenderer{}
	sink := &recordingSink{}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := testConfig("01", "02", "03")
	cfg.Delay = time.Hour

	done := make(chan Outcome, 1)
	go func() {
		done <- New(fetcher, renderer, sink, cfg).Run(ctx)
	}()

	select {
	case out := <-done:
		if out.Partitions != 3 {
			t.Errorf("Partitions = %d, want 3", out.Partitions)
		}
		if out.Source != progress.SourceFallback {
			t.Errorf("Source = %s, want fallback", out.Source)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancellation")
	}

	if len(fetcher.visited) != 0 {
		t.Errorf("fetched %v after cancellation", fetcher.visited)
	}
	if len(sink.updates) != 3 || len(sink.done) != 1 {
		t.Errorf("updates = %d, done = %d", len(sink.updates), len(sink.done))
	}
	if len(renderer.calls) != 1 {
		t.Errorf("render calls = %d, want 1", len(renderer.calls))
	}
}

func TestRun_Delay(t *testing.T) {
	cfg := testConfig("01", "02", "03")
	cfg.Delay = 20 * time.Millisecond

	start := time.Now()
	New(&scriptedFetcher{}, &recordingRenderer{}, nil, cfg).Run(context.Background())

	// Two pauses separate three steps.
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("run took %v, want at least 40ms", elapsed)
	}
}

func TestStep(t *testing.T) {
	fetcher := &scriptedFetcher{records: map[partition.Key][]facility.Record{"2B": {rec("x")}}}
	o := New(fetcher, &recordingRenderer{}, nil, testConfig("2A", "2B"))

	st := &State{}
	o.Step(context.Background(), st)
	if st.Index != 1 || len(st.Records) != 0 || o.Done(st) {
		t.Errorf("after first step: %+v", st)
	}

	o.Step(context.Background(), st)
	if st.Index != 2 || len(st.Records) != 1 || !o.Done(st) {
		t.Errorf("after second step: %+v", st)
	}
}

func TestNew_CopiesKeys(t *testing.T) {
	keys := []partition.Key{"01", "02"}
	o := New(&scriptedFetcher{}, &recordingRenderer{}, nil, testConfig(keys...))

	keys[0] = "99"
	if o.Keys()[0] != "01" {
		t.Error("orchestrator must not alias the caller's key slice")
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.Keys) != 101 {
		t.Errorf("len(Keys) = %d, want 101", len(cfg.Keys))
	}
	if cfg.Delay != 100*time.Millisecond {
		t.Errorf("Delay = %v, want 100ms", cfg.Delay)
	}
	if cfg.Fallback == nil {
		t.Error("Fallback should be set")
	}
}
