package oshify

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/check.v1"

	"github.com/oshifier/oshify/catalog"
)

var _ = check.Suite(&reconcileSuite{})

type reconcileSuite struct {
	dir string
}

func (s *reconcileSuite) SetUpTest(c *check.C) {
	s.dir = c.MkDir()
}

func (s *reconcileSuite) writeCatalog(c *check.C, content string) string {
	path := filepath.Join(s.dir, "messages.json")
	c.Assert(os.WriteFile(path, []byte(content), 0o644), check.IsNil)
	return path
}

func (s *reconcileSuite) messages(c *check.C, path string) []catalog.Message {
	cat, err := catalog.Load(path)
	c.Assert(err, check.IsNil)
	return cat.Messages()
}

func fixedIDs(ids ...string) func() string {
	return func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}
}

func (s *reconcileSuite) TestMissCreatesMessage(c *check.C) {
	path := s.writeCatalog(c, `{"messages":[]}`)

	r := Reconciler{NewID: fixedIDs("NEW-ID")}
	res, err := r.Reconcile(context.Background(), `'Hi ${name}'`, path)
	c.Assert(err, check.IsNil)
	c.Check(res.Replacement, check.Equals, `'NEW-ID'.localized.format(name)`)
	c.Check(res.Created, check.Equals, true)
	c.Check(res.Template, check.Equals, "Hi {}")
	c.Check(res.Placeholders, check.DeepEquals, []string{"name"})

	c.Check(s.messages(c, path), check.DeepEquals, []catalog.Message{
		{ID: "NEW-ID", Translation: "Hi {}"},
	})
}

func (s *reconcileSuite) TestMissWithDefaultAllocator(c *check.C) {
	path := s.writeCatalog(c, `{"messages":[]}`)

	var r Reconciler
	res, err := r.Reconcile(context.Background(), `"Plain text"`, path)
	c.Assert(err, check.IsNil)
	c.Check(res.Replacement, check.Matches, `'[0-9A-F-]{36}'\.localized`)

	msgs := s.messages(c, path)
	c.Assert(msgs, check.HasLen, 1)
	c.Check(msgs[0].ID, check.Equals, res.ID)
	c.Check(msgs[0].Translation, check.Equals, "Plain text")
}

func (s *reconcileSuite) TestHitReusesIDWithoutWriting(c *check.C) {
	const content = `{"messages":[{"id":"X","translation":"Hi {}"}]}`
	path := s.writeCatalog(c, content)

	persisted := false
	old := persistCatalog
	persistCatalog = func(cat *catalog.Catalog, path string) error {
		persisted = true
		return old(cat, path)
	}
	defer func() { persistCatalog = old }()

	r := Reconciler{NewID: fixedIDs()}
	res, err := r.Reconcile(context.Background(), `'Hi ${other}'`, path)
	c.Assert(err, check.IsNil)
	c.Check(res.Replacement, check.Equals, `'X'.localized.format(other)`)
	c.Check(res.Created, check.Equals, false)
	c.Check(persisted, check.Equals, false)

	data, err := os.ReadFile(path)
	c.Assert(err, check.IsNil)
	c.Check(string(data), check.Equals, content)

	_, err = os.Stat(path + ".lock")
	c.Check(os.IsNotExist(err), check.Equals, true)
}

func (s *reconcileSuite) TestHitIgnoresUnusableLock(c *check.C) {
	path := s.writeCatalog(c, `{"messages":[{"id":"X","translation":"Hi {}"}]}`)
	c.Assert(os.Mkdir(path+".lock", 0o755), check.IsNil)

	r := Reconciler{NewID: fixedIDs()}
	res, err := r.Reconcile(context.Background(), `'Hi ${x}'`, path)
	c.Assert(err, check.IsNil)
	c.Check(res.Replacement, check.Equals, `'X'.localized.format(x)`)
}

func (s *reconcileSuite) TestMissReportsUnusableLock(c *check.C) {
	const content = `{"messages":[]}`
	path := s.writeCatalog(c, content)
	c.Assert(os.Mkdir(path+".lock", 0o755), check.IsNil)

	r := Reconciler{NewID: fixedIDs("NEW")}
	res, err := r.Reconcile(context.Background(), `'Hi ${x}'`, path)
	c.Check(res, check.IsNil)
	c.Check(errors.Is(err, catalog.ErrLock), check.Equals, true)
	c.Check(errors.Is(err, catalog.ErrIO), check.Equals, false)

	data, err := os.ReadFile(path)
	c.Assert(err, check.IsNil)
	c.Check(string(data), check.Equals, content)

	r = Reconciler{NewID: fixedIDs("NEW"), NoLock: true}
	res, err = r.Reconcile(context.Background(), `'Hi ${x}'`, path)
	c.Assert(err, check.IsNil)
	c.Check(res.Created, check.Equals, true)
}

func (s *reconcileSuite) TestSameTemplateDifferentExpressions(c *check.C) {
	path := s.writeCatalog(c, `{"messages":[]}`)
	r := Reconciler{NewID: fixedIDs("FIRST", "SECOND")}

	first, err := r.Reconcile(context.Background(), `'${a} left'`, path)
	c.Assert(err, check.IsNil)
	second, err := r.Reconcile(context.Background(), `"$b left"`, path)
	c.Assert(err, check.IsNil)

	c.Check(first.Replacement, check.Equals, `'FIRST'.localized.format(a)`)
	c.Check(second.Replacement, check.Equals, `'FIRST'.localized.format(b)`)
	c.Check(s.messages(c, path), check.HasLen, 1)
}

func (s *reconcileSuite) TestNewEntriesAppendAtTail(c *check.C) {
	path := s.writeCatalog(c, `{"messages":[{"id":"A","translation":"a"}]}`)
	r := Reconciler{NewID: fixedIDs("B", "C")}

	for _, literal := range []string{`'b'`, `'c ${x} ${y}'`} {
		_, err := r.Reconcile(context.Background(), literal, path)
		c.Assert(err, check.IsNil)
	}
	c.Check(s.messages(c, path), check.DeepEquals, []catalog.Message{
		{ID: "A", Translation: "a"},
		{ID: "B", Translation: "b"},
		{ID: "C", Translation: "c {} {}"},
	})
}

func (s *reconcileSuite) TestCollidingIDIsRedrawn(c *check.C) {
	path := s.writeCatalog(c, `{"messages":[{"id":"A","translation":"a"}]}`)
	r := Reconciler{NewID: fixedIDs("A", "A", "B")}

	res, err := r.Reconcile(context.Background(), `'b'`, path)
	c.Assert(err, check.IsNil)
	c.Check(res.ID, check.Equals, "B")
}

func (s *reconcileSuite) TestInvalidSelection(c *check.C) {
	path := filepath.Join(s.dir, "never-touched.json")
	r := Reconciler{NewID: fixedIDs()}

	for _, literal := range []string{``, `unquoted`, `'mismatched"`, `'`} {
		res, err := r.Reconcile(context.Background(), literal, path)
		c.Check(res, check.IsNil)
		c.Check(err, check.Equals, ErrInvalidSelection, check.Commentf("literal: %q", literal))
	}

	entries, err := os.ReadDir(s.dir)
	c.Assert(err, check.IsNil)
	c.Check(entries, check.HasLen, 0)
}

func (s *reconcileSuite) TestCatalogErrorsPropagate(c *check.C) {
	r := Reconciler{NewID: fixedIDs()}

	_, err := r.Reconcile(context.Background(), `'x'`, filepath.Join(s.dir, "missing.json"))
	c.Check(errors.Is(err, catalog.ErrNotFound), check.Equals, true)

	path := s.writeCatalog(c, `{"messages": [`)
	_, err = r.Reconcile(context.Background(), `'x'`, path)
	c.Check(errors.Is(err, catalog.ErrParse), check.Equals, true)
}

func (s *reconcileSuite) TestSchemaErrorDoesNotWrite(c *check.C) {
	const content = `{"notMessages": []}`
	path := s.writeCatalog(c, content)

	r := Reconciler{NewID: fixedIDs("NEW")}
	_, err := r.Reconcile(context.Background(), `'x'`, path)
	c.Check(errors.Is(err, catalog.ErrSchema), check.Equals, true)

	data, err := os.ReadFile(path)
	c.Assert(err, check.IsNil)
	c.Check(string(data), check.Equals, content)
}

func (s *reconcileSuite) TestPersistFailureReturnsResult(c *check.C) {
	path := s.writeCatalog(c, `{"messages":[]}`)

	old := persistCatalog
	persistCatalog = func(*catalog.Catalog, string) error {
		return &catalog.Error{Path: path, Kind: catalog.ErrPersist, Err: errors.New("disk full")}
	}
	defer func() { persistCatalog = old }()

	r := Reconciler{NewID: fixedIDs("LOST")}
	res, err := r.Reconcile(context.Background(), `'Hi $name'`, path)
	c.Check(errors.Is(err, catalog.ErrPersist), check.Equals, true)
	c.Check(err, check.ErrorMatches, `.*disk full`)
	c.Assert(res, check.NotNil)
	c.Check(res.Replacement, check.Equals, `'LOST'.localized.format(name)`)

	// the next operation does not see the lost entry
	c.Check(s.messages(c, path), check.HasLen, 0)
}

func (s *reconcileSuite) TestCanceledContext(c *check.C) {
	const content = `{"messages":[]}`
	path := s.writeCatalog(c, content)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := Reconciler{NewID: fixedIDs("NEW")}
	_, err := r.Reconcile(ctx, `'x'`, path)
	c.Check(err, check.Equals, context.Canceled)

	data, err := os.ReadFile(path)
	c.Assert(err, check.IsNil)
	c.Check(string(data), check.Equals, content)
}

func (s *reconcileSuite) TestStrictRejectsLiteralMarkers(c *check.C) {
	path := s.writeCatalog(c, `{"messages":[]}`)

	r := Reconciler{NewID: fixedIDs("NEW"), Strict: true}
	_, err := r.Reconcile(context.Background(), `'set {} to ${v}'`, path)
	c.Check(errors.Is(err, ErrPlaceholderMismatch), check.Equals, true)
	c.Check(s.messages(c, path), check.HasLen, 0)

	r.Strict = false
	res, err := r.Reconcile(context.Background(), `'set {} to ${v}'`, path)
	c.Assert(err, check.IsNil)
	c.Check(res.Template, check.Equals, "set {} to {}")
}

func (s *reconcileSuite) TestCustomStyle(c *check.C) {
	path := s.writeCatalog(c, `{"messages":[{"id":"X","translation":"{} items"}]}`)

	r := Reconciler{Style: Style{Getter: "tr", Format: "args"}, NoLock: true}
	res, err := r.Reconcile(context.Background(), `'${count} items'`, path)
	c.Assert(err, check.IsNil)
	c.Check(res.Replacement, check.Equals, `'X'.tr.args(count)`)
}
