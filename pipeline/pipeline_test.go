package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rushteam/cfkit/core"
)

type appendNode struct {
	id  string
	err error
}

func (n *appendNode) Name() string { return "test." + n.id }
func (n *appendNode) Kind() Kind   { return KindRecall }

func (n *appendNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(n.id, len(items)+1)), nil
}

func ids(items []*core.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestPipeline_Run(t *testing.T) {
	p := &Pipeline{Nodes: []Node{&appendNode{id: "a"}, &appendNode{id: "b"}}}
	got, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !reflect.DeepEqual(ids(got), []string{"a", "b"}) {
		t.Errorf("Run() = %v, want [a b]", ids(got))
	}
}

func TestPipeline_RunErrors(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{&appendNode{id: "a"}, &appendNode{id: "b", err: boom}}}
	_, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if !errors.Is(err, boom) {
		t.Fatalf("Run() error = %v, want boom", err)
	}
	if !strings.HasPrefix(err.Error(), "test.b:") {
		t.Errorf("error %q does not name the node", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := (&Pipeline{Nodes: []Node{&appendNode{id: "a"}}}).Run(ctx, nil, nil); !errors.Is(err, context.Canceled) {
		t.Errorf("Run(canceled) error = %v", err)
	}
}

func TestConfig_BuildPipeline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	data := []byte(`
pipeline:
  name: demo
  nodes:
    - type: test.append
      config: {id: x}
    - type: test.append
      config: {id: y}
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML() error = %v", err)
	}
	if cfg.Pipeline.Name != "demo" || len(cfg.Pipeline.Nodes) != 2 {
		t.Fatalf("config = %+v", cfg.Pipeline)
	}

	f := NewNodeFactory()
	f.Register("test.append", func(c map[string]any) (Node, error) {
		id, _ := c["id"].(string)
		return &appendNode{id: id}, nil
	})
	p, err := cfg.BuildPipeline(f)
	if err != nil {
		t.Fatalf("BuildPipeline() error = %v", err)
	}
	got, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(ids(got), []string{"x", "y"}) {
		t.Errorf("Run() = %v, want [x y]", ids(got))
	}
}

func TestNodeFactory_Unknown(t *testing.T) {
	f := NewNodeFactory()
	f.Register("b", nil)
	f.Register("a", nil)
	if got := f.Types(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Types() = %v", got)
	}

	cfg, err := ParseYAML([]byte("pipeline:\n  nodes:\n    - type: rank.lr\n"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := cfg.BuildPipeline(f); err == nil || !strings.Contains(err.Error(), "rank.lr") {
		t.Errorf("BuildPipeline() error = %v, want unknown node type", err)
	}

	if _, err := ParseYAML([]byte("pipeline: [")); err == nil {
		t.Error("ParseYAML(invalid) returned nil error")
	}
}
