package chunk

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/cognicore/txthistory/pkg/txthistory/internalerr"
)

type msg struct {
	sender  string
	content string
}

func msgSize(m msg) int { return EstimateSize(m.sender, m.content) }

func makeMessages(n int) []msg {
	out := make([]msg, n)
	for i := range out {
		out[i] = msg{
			sender:  fmt.Sprintf("+1555000%04d", i%7),
			content: strings.Repeat("x", (i*37)%220),
		}
	}
	return out
}

func flatten[T any](chunks []Chunk[T]) []T {
	var out []T
	for _, c := range chunks {
		out = append(out, c.Items...)
	}
	return out
}

func TestSplitReconstruction(t *testing.T) {
	strategies := []Strategy{
		Whole(),
		ByCount(1),
		ByCount(3),
		ByCount(10),
		ByCount(1000),
		BySize(1),
		BySize(200),
		BySize(1024),
		BySize(1 << 20),
	}
	for _, n := range []int{1, 2, 9, 10, 57} {
		input := makeMessages(n)
		for _, s := range strategies {
			chunks, err := Split(input, s, msgSize)
			if err != nil {
				t.Fatalf("Split(%d, %v): %v", n, s, err)
			}
			if got := flatten(chunks); !reflect.DeepEqual(got, input) {
				t.Errorf("Split(%d, %v) does not reconstruct input", n, s)
			}
			for i, c := range chunks {
				if c.Index != i+1 {
					t.Errorf("Split(%d, %v) chunk %d has index %d", n, s, i, c.Index)
				}
				if len(c.Items) == 0 {
					t.Errorf("Split(%d, %v) produced an empty chunk", n, s)
				}
			}
		}
	}
}

func TestSplitByCount(t *testing.T) {
	chunks, err := Split([]int{1, 2, 3, 4, 5, 6, 7}, ByCount(3), nil)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	want := [][]int{{1, 2, 3}, {4, 5, 6}, {7}}
	if len(chunks) != len(want) {
		t.Fatalf("expected %d chunks, got %d", len(want), len(chunks))
	}
	for i := range want {
		if !reflect.DeepEqual(chunks[i].Items, want[i]) {
			t.Errorf("chunk %d = %v, want %v", i+1, chunks[i].Items, want[i])
		}
	}
}

func TestSplitBySizeBudget(t *testing.T) {
	input := makeMessages(200)
	for _, budget := range []int64{100, 300, 700, 4096} {
		chunks, err := Split(input, BySize(budget), msgSize)
		if err != nil {
			t.Fatalf("Split: %v", err)
		}
		for _, c := range chunks {
			if len(c.Items) == 1 {
				continue
			}
			if size := Size(c, msgSize); size > budget {
				t.Errorf("budget %d: chunk %d has size %d", budget, c.Index, size)
			}
		}
	}
}

func TestSplitBySizeOversizedElement(t *testing.T) {
	input := []msg{
		{sender: "a", content: "short"},
		{sender: "b", content: strings.Repeat("y", 500)},
		{sender: "c", content: "short"},
	}
	chunks, err := Split(input, BySize(100), msgSize)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(chunks))
	}
	if len(chunks[1].Items) != 1 || chunks[1].Items[0].sender != "b" {
		t.Errorf("oversized element should be alone in its chunk, got %+v", chunks[1].Items)
	}
}

func TestSplitBySizeExactFit(t *testing.T) {
	// Each element estimates to 1+1+50 = 52 bytes.
	input := []msg{{"a", "1"}, {"b", "2"}, {"c", "3"}}
	chunks, err := Split(input, BySize(104), msgSize)
	if err != nil {
		t.Fatalf("Split: %v", err)
	}
	if len(chunks) != 2 || len(chunks[0].Items) != 2 {
		t.Errorf("expected [2 1] split, got %d chunks", len(chunks))
	}
}

func TestSplitEmpty(t *testing.T) {
	for _, s := range []Strategy{Whole(), ByCount(2), BySize(10)} {
		chunks, err := Split([]msg{}, s, msgSize)
		if err != nil {
			t.Fatalf("Split(%v): %v", s, err)
		}
		if len(chunks) != 0 {
			t.Errorf("Split(%v) of empty input produced %d chunks", s, len(chunks))
		}
	}
}

func TestSplitInvalid(t *testing.T) {
	for _, s := range []Strategy{ByCount(0), ByCount(-1), BySize(0), BySize(-5)} {
		_, err := Split(makeMessages(3), s, msgSize)
		if !errors.Is(err, internalerr.ErrInvalidInput) {
			t.Errorf("Split(%v) error = %v, want ErrInvalidInput", s, err)
		}
	}
	if _, err := Split(makeMessages(3), BySize(10), nil); !errors.Is(err, internalerr.ErrInvalidInput) {
		t.Errorf("missing sizer error = %v, want ErrInvalidInput", err)
	}
}

func TestEstimateSize(t *testing.T) {
	if got := EstimateSize("bob", "hello"); got != 3+5+Overhead {
		t.Errorf("EstimateSize = %d", got)
	}
	if got := EstimateSize("", "é"); got != 2+Overhead {
		t.Errorf("EstimateSize counts bytes, got %d", got)
	}
}
