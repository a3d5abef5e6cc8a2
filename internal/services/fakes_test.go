package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Lllllllleong/pdfnarration/internal/models"
)

type fakeDoc struct {
	pages   []string
	pageErr map[int]error
	partial map[int]string
	meta    map[string]any
	metaErr error
}

func (d *fakeDoc) PageCount() int { return len(d.pages) }

func (d *fakeDoc) Metadata() (map[string]any, error) {
	if d.metaErr != nil {
		return nil, d.metaErr
	}
	return d.meta, nil
}

func (d *fakeDoc) ExtractPageText(i int) (string, error) {
	if err, ok := d.pageErr[i]; ok {
		return d.partial[i], err
	}
	return d.pages[i], nil
}

type fakeLibrary struct {
	doc *fakeDoc
	err error
}

func (l fakeLibrary) Open(raw []byte) (DocumentHandle, error) {
	if l.err != nil {
		return nil, l.err
	}
	return l.doc, nil
}

type lazyValue struct {
	value any
	err   error
	calls int
}

func (v *lazyValue) Resolve() (any, error) {
	v.calls++
	return v.value, v.err
}

type putCall struct {
	namespace, key, contentType string
	content                     string
}

type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	puts    []putCall
	gets    int
	getErr  error
	putErr  error
	signErr error
	uploads []uploadCall
}

type uploadCall struct {
	namespace, key, contentType string
	ttl                         time.Duration
}

func newFakeStore() *fakeStore {
	return &fakeStore{objects: map[string][]byte{}}
}

func (s *fakeStore) Scheme() string { return "mem" }

func (s *fakeStore) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gets++
	if s.getErr != nil {
		return nil, s.getErr
	}
	data, ok := s.objects[namespace+"/"+key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return data, nil
}

func (s *fakeStore) Put(ctx context.Context, namespace, key string, content []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	s.puts = append(s.puts, putCall{namespace: namespace, key: key, contentType: contentType, content: string(content)})
	s.objects[namespace+"/"+key] = content
	return nil
}

func (s *fakeStore) Sign(ctx context.Context, namespace, key string, ttl time.Duration) (string, error) {
	if s.signErr != nil {
		return "", s.signErr
	}
	return fmt.Sprintf("https://signed.example/%s/%s?ttl=%d", namespace, key, int(ttl.Seconds())), nil
}

func (s *fakeStore) SignUpload(ctx context.Context, namespace, key, contentType string, ttl time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.signErr != nil {
		return "", s.signErr
	}
	s.uploads = append(s.uploads, uploadCall{namespace: namespace, key: key, contentType: contentType, ttl: ttl})
	return fmt.Sprintf("https://signed.example/%s/%s?method=PUT&ttl=%d", namespace, key, int(ttl.Seconds())), nil
}

type submitCall struct {
	text, voice, namespace, prefix string
}

type fakeSynth struct {
	calls  []submitCall
	err    error
	states map[string]models.NarrationState
}

func (f *fakeSynth) SubmitJob(ctx context.Context, text, voice, namespace, prefix string) (string, error) {
	f.calls = append(f.calls, submitCall{text: text, voice: voice, namespace: namespace, prefix: prefix})
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("task-%d", len(f.calls)), nil
}

func (f *fakeSynth) Status(ctx context.Context, taskID string) (models.NarrationState, error) {
	if f.err != nil {
		return "", f.err
	}
	state, ok := f.states[taskID]
	if !ok {
		return models.NarrationPending, nil
	}
	return state, nil
}

type fakeLedger struct {
	records   map[string]models.NarrationRecord
	lookupErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: map[string]models.NarrationRecord{}}
}

func (l *fakeLedger) Lookup(ctx context.Context, dedupKey string) (*models.NarrationRecord, error) {
	if l.lookupErr != nil {
		return nil, l.lookupErr
	}
	rec, ok := l.records[dedupKey]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (l *fakeLedger) Record(ctx context.Context, rec models.NarrationRecord) error {
	if _, ok := l.records[rec.DedupKey]; !ok {
		l.records[rec.DedupKey] = rec
	}
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
