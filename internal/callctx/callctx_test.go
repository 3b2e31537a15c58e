package callctx_test

import (
	"context"
	"fmt"
	"testing"

	. "github.com/onsi/gomega"
	"pgregory.net/rapid"

	"github.com/toejough/impmock/internal/callctx"
)

func TestSetData_VisibleLaterOnTheSamePath(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	ctx := callctx.SetData(context.Background(), "user", "ada")
	same := callctx.SetData(ctx, "role", "admin")

	g.Expect(same).To(BeIdenticalTo(ctx), "writes into an existing scope keep the context")

	user, ok := callctx.GetData(ctx, "user")
	g.Expect(ok).To(BeTrue())
	g.Expect(user).To(Equal("ada"))

	role, ok := callctx.Get[string](ctx, "role")
	g.Expect(ok).To(BeTrue())
	g.Expect(role).To(Equal("admin"))
}

func TestGet_MissingOrMistyped(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	_, ok := callctx.GetData(context.Background(), "missing")
	g.Expect(ok).To(BeFalse())
	g.Expect(callctx.Has(context.Background())).To(BeFalse())
	g.Expect(callctx.Snapshot(context.Background())).To(BeNil())

	ctx := callctx.Set(context.Background(), "count", 3)

	_, ok = callctx.Get[string](ctx, "count")
	g.Expect(ok).To(BeFalse(), "a value of another type reads as absent")

	count, ok := callctx.Get[int](ctx, "count")
	g.Expect(ok).To(BeTrue())
	g.Expect(count).To(Equal(3))
}

func TestFork_ChildSeesParentButNotTheOtherWay(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	parent := callctx.SetData(context.Background(), "shared", 1)
	child := callctx.Fork(parent)

	callctx.SetData(child, "shared", 2)
	callctx.SetData(child, "childOnly", true)
	callctx.SetData(parent, "late", "after fork")

	g.Expect(callctx.Snapshot(parent)).To(Equal(map[string]any{"shared": 1, "late": "after fork"}))
	g.Expect(callctx.Snapshot(child)).To(Equal(map[string]any{"shared": 2, "childOnly": true}))
}

func TestGo_RunsInForkedScope(t *testing.T) {
	t.Parallel()
	g := NewWithT(t)

	parent := callctx.SetData(context.Background(), "trace", "t-1")

	var seen any

	<-callctx.Go(parent, func(ctx context.Context) {
		seen, _ = callctx.GetData(ctx, "trace")
		callctx.SetData(ctx, "trace", "overwritten")
	})

	g.Expect(seen).To(Equal("t-1"))

	trace, _ := callctx.GetData(parent, "trace")
	g.Expect(trace).To(Equal("t-1"))
}

// TestGroup_ConcurrentTreesStayIsolated runs random trees of concurrent
// workers. Each worker writes its own identity, then checks it still reads
// its own value and its parent's, never a sibling's.
func TestGroup_ConcurrentTreesStayIsolated(t *testing.T) {
	t.Parallel()

	rapid.Check(t, func(rt *rapid.T) {
		trees := rapid.IntRange(1, 6).Draw(rt, "trees")
		width := rapid.IntRange(1, 8).Draw(rt, "width")

		group, ctx := callctx.WithGroup(context.Background())

		for tree := range trees {
			group.Go(func(ctx context.Context) error {
				return runTree(ctx, tree, width)
			})
		}

		if err := group.Wait(); err != nil {
			rt.Fatalf("%v", err)
		}

		if callctx.Has(ctx) {
			rt.Fatalf("a tree's scope leaked into the shared context")
		}
	})
}

func runTree(ctx context.Context, tree, width int) error {
	ctx = callctx.SetData(ctx, "tree", tree)
	group, groupCtx := callctx.WithGroup(ctx)

	for leaf := range width {
		group.Go(func(ctx context.Context) error {
			callctx.SetData(ctx, "leaf", leaf)

			if got, _ := callctx.Get[int](ctx, "tree"); got != tree {
				return fmt.Errorf("tree %d leaf %d: inherited tree %d", tree, leaf, got)
			}

			if got, _ := callctx.Get[int](ctx, "leaf"); got != leaf {
				return fmt.Errorf("tree %d leaf %d: reads leaf %d", tree, leaf, got)
			}

			return nil
		})
	}

	if err := group.Wait(); err != nil {
		return err
	}

	if _, ok := callctx.GetData(groupCtx, "leaf"); ok {
		return fmt.Errorf("tree %d: a leaf's write reached its parent", tree)
	}

	return nil
}
