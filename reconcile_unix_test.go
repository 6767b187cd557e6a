//go:build unix

package oshify

import (
	"context"
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
	"gopkg.in/check.v1"

	"github.com/oshifier/oshify/catalog"
)

func (s *reconcileSuite) TestMissRereadsCatalogUnderLock(c *check.C) {
	path := s.writeCatalog(c, `{"messages":[]}`)

	held, err := catalog.Lock(context.Background(), path)
	c.Assert(err, check.IsNil)

	core, logs := observer.New(zapcore.DebugLevel)
	r := Reconciler{NewID: fixedIDs("NEW"), Logger: zap.New(core)}

	type outcome struct {
		res *Result
		err error
	}
	done := make(chan outcome, 1)
	go func() {
		res, err := r.Reconcile(context.Background(), `'Hi ${x}'`, path)
		done <- outcome{res, err}
	}()

	// wait for the first read, then let another writer add the template
	deadline := time.Now().Add(5 * time.Second)
	for logs.FilterMessage("catalog loaded").Len() == 0 {
		c.Assert(time.Now().Before(deadline), check.Equals, true)
		time.Sleep(5 * time.Millisecond)
	}
	c.Assert(os.WriteFile(path, []byte(`{"messages":[{"id":"OTHER","translation":"Hi {}"}]}`), 0o644), check.IsNil)
	c.Assert(held.Unlock(), check.IsNil)

	got := <-done
	c.Assert(got.err, check.IsNil)
	c.Check(got.res.ID, check.Equals, "OTHER")
	c.Check(got.res.Created, check.Equals, false)
	c.Check(s.messages(c, path), check.HasLen, 1)
}
