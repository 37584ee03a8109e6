package database

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fulldump/biff"

	"github.com/fulldump/refinery/dse"
	"github.com/fulldump/refinery/problems"
)

func newRequest(t *testing.T, name string, p problems.Parameters) *Request {
	problem, err := problems.Build(name, p)
	if err != nil {
		t.Fatal(err)
	}
	return &Request{
		Problem:      problem,
		ProblemName:  name,
		Strategy:     &dse.DepthFirstStrategy{MaxDepth: -1},
		StrategyName: "dfs",
		Options:      dse.Options{Solutions: 1},
	}
}

func TestDatabase(t *testing.T) {

	biff.Alternative("Database", func(a *biff.A) {

		dir := t.TempDir()
		db := NewDatabase(&Config{
			Workers:   2,
			ExportDir: dir,
		})
		biff.AssertEqual(db.GetStatus(), StatusOpening)

		a.Alternative("Not operating", func(a *biff.A) {
			_, err := db.Launch(newRequest(t, "graph", problems.Parameters{}))
			biff.AssertTrue(errors.Is(err, ErrNotOperating))
		})

		a.Alternative("Launch", func(a *biff.A) {
			biff.AssertNil(db.Load())
			biff.AssertEqual(db.GetStatus(), StatusOperating)

			e, err := db.Launch(newRequest(t, "coloring", problems.Parameters{Size: 4, Colors: 2}))
			biff.AssertNil(err)
			<-e.Done()

			biff.AssertEqual(e.Status(), "success")
			biff.AssertNil(e.Err())
			biff.AssertEqual(len(e.Result().Solutions), 1)
			biff.AssertTrue(len(e.Graph().States) > 0)

			info, err := os.Stat(filepath.Join(dir, e.Id+".jsonl"))
			biff.AssertNil(err)
			biff.AssertTrue(info.Size() > 0)

			found, err := db.Get(e.Id)
			biff.AssertNil(err)
			biff.AssertTrue(found == e)
			biff.AssertEqual(len(db.List()), 1)

			_, err = db.Get("missing")
			biff.AssertTrue(errors.Is(err, ErrExplorationNotFound))
		})

		a.Alternative("Stop cancels", func(a *biff.A) {
			biff.AssertNil(db.Load())

			request := newRequest(t, "graph", problems.Parameters{Size: 7, ExtraEdges: 15})
			request.Options.Solutions = 0
			e, err := db.Launch(request)
			biff.AssertNil(err)

			biff.AssertNil(db.Stop())
			<-e.Done()
			biff.AssertEqual(db.GetStatus(), StatusClosing)
			biff.AssertTrue(e.Status() == "cancelled" || e.Status() == "exhausted")
		})
	})
}
