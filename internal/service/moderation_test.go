package service

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slack-confessions/internal/models"
	"slack-confessions/internal/slack"
	"slack-confessions/internal/storage"
)

// memoryStore is an in-memory ConfessionStore for workflow tests.
type memoryStore struct {
	mu      sync.Mutex
	nextID  uint
	records map[uint]*models.Confession

	failCreate bool
	failUpdate bool
	failDelete bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{records: make(map[uint]*models.Confession)}
}

func (s *memoryStore) Create(text, submitterID string) (*models.Confession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreate {
		return nil, fmt.Errorf("%w: injected", storage.ErrWrite)
	}
	s.nextID++
	rec := &models.Confession{
		ID:      s.nextID,
		Text:    text,
		UIDSalt: fmt.Sprintf("salt-%d", s.nextID),
		UIDHash: fmt.Sprintf("hash-%s-%d", submitterID, s.nextID),
	}
	s.records[rec.ID] = rec
	return rec, nil
}

func (s *memoryStore) GetByStagingTS(stagingTS string) (*models.Confession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var found []*models.Confession
	for _, rec := range s.records {
		if rec.StagingTS == stagingTS {
			found = append(found, rec)
		}
	}
	switch len(found) {
	case 0:
		return nil, fmt.Errorf("%w: staging_ts=%s", storage.ErrNotFound, stagingTS)
	case 1:
		copied := *found[0]
		return &copied, nil
	default:
		return nil, fmt.Errorf("%w: multiple records for staging_ts=%s", storage.ErrConsistency, stagingTS)
	}
}

func (s *memoryStore) Update(id uint, fields map[string]interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failUpdate {
		return fmt.Errorf("%w: injected", storage.ErrWrite)
	}
	rec, ok := s.records[id]
	if !ok {
		return fmt.Errorf("%w: id=%d", storage.ErrWrite, id)
	}
	for key, value := range fields {
		switch key {
		case "staging_ts":
			rec.StagingTS = value.(string)
		case "published_ts":
			rec.PublishedTS = value.(string)
		case "approved":
			rec.Approved = value.(bool)
		case "viewed":
			rec.Viewed = value.(bool)
		}
	}
	return nil
}

func (s *memoryStore) Delete(id uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failDelete {
		return fmt.Errorf("%w: injected", storage.ErrWrite)
	}
	delete(s.records, id)
	return nil
}

func (s *memoryStore) get(id uint) *models.Confession {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.records[id]
}

type sentMessage struct {
	channel string
	text    string
	blocks  []slack.Block
}

type deletedMessage struct {
	channel string
	ts      string
}

// fakeMessenger records outbound traffic and fails on demand.
type fakeMessenger struct {
	posts   []sentMessage
	deletes []deletedMessage

	tsCounter int
	postErr   error
	postNotOK bool
	deleteErr error
}

func (m *fakeMessenger) PostMessage(channel, text string, blocks []slack.Block) (slack.MessageHandle, error) {
	if m.postErr != nil {
		return slack.MessageHandle{}, m.postErr
	}
	if m.postNotOK {
		return slack.MessageHandle{OK: false, Error: "channel_not_found"}, nil
	}
	m.posts = append(m.posts, sentMessage{channel: channel, text: text, blocks: blocks})
	m.tsCounter++
	return slack.MessageHandle{OK: true, TS: fmt.Sprintf("1700000000.%06d", m.tsCounter)}, nil
}

func (m *fakeMessenger) DeleteMessage(channel, ts string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deletes = append(m.deletes, deletedMessage{channel: channel, ts: ts})
	return nil
}

func newTestModerator() (*Moderator, *memoryStore, *fakeMessenger) {
	store := newMemoryStore()
	messenger := &fakeMessenger{}
	mod := NewModerator(store, messenger, "C0STAGING", "C0PUBLIC", "https://records.example")
	return mod, store, messenger
}

func TestStagePostsAndPersistsStagingTS(t *testing.T) {
	mod, store, messenger := newTestModerator()

	rec, err := mod.Stage("hello", "U123")
	require.NoError(t, err)
	require.NotNil(t, rec)

	// The staging message carries the id, the text, and three buttons.
	require.Len(t, messenger.posts, 1)
	post := messenger.posts[0]
	assert.Equal(t, "C0STAGING", post.channel)
	require.Len(t, post.blocks, 2)
	assert.Contains(t, post.blocks[0].Text.Text, fmt.Sprintf("*#%d*", rec.ID))
	assert.Contains(t, post.blocks[0].Text.Text, "hello")
	assert.Len(t, post.blocks[1].Elements, 3)

	// Round-trip: the staged record is retrievable by its staging_ts and
	// still awaiting moderation.
	stored, err := store.GetByStagingTS(rec.StagingTS)
	require.NoError(t, err)
	assert.Equal(t, rec.ID, stored.ID)
	assert.False(t, stored.Approved)
	assert.False(t, stored.Viewed)
	assert.NotEmpty(t, stored.UIDSalt)
	assert.NotEmpty(t, stored.UIDHash)
}

func TestStageRollsBackWhenPostNotOK(t *testing.T) {
	mod, store, messenger := newTestModerator()
	messenger.postNotOK = true

	rec, err := mod.Stage("hello", "U123")
	assert.ErrorIs(t, err, slack.ErrMessaging)
	assert.Nil(t, rec)

	// The created record must not outlive the failed announcement.
	assert.Nil(t, store.get(1))
}

func TestStageRollsBackWhenPostFails(t *testing.T) {
	mod, store, messenger := newTestModerator()
	messenger.postErr = fmt.Errorf("%w: connection refused", slack.ErrMessaging)

	_, err := mod.Stage("hello", "U123")
	assert.ErrorIs(t, err, slack.ErrMessaging)
	assert.Nil(t, store.get(1))
}

func TestStageFailsWhenCreateFails(t *testing.T) {
	mod, _, messenger := newTestModerator()
	mod.store.(*memoryStore).failCreate = true

	_, err := mod.Stage("hello", "U123")
	assert.ErrorIs(t, err, storage.ErrWrite)
	assert.Empty(t, messenger.posts)
}

func TestViewApprovePublishesThenPersistsThenDeletes(t *testing.T) {
	mod, store, messenger := newTestModerator()
	rec, err := mod.Stage("hello", "U123")
	require.NoError(t, err)
	messenger.posts = nil

	require.NoError(t, mod.View(rec.StagingTS, true))

	// Exactly one public post: "*<id>*: <text>", no identity.
	require.Len(t, messenger.posts, 1)
	assert.Equal(t, "C0PUBLIC", messenger.posts[0].channel)
	assert.Equal(t, fmt.Sprintf("*%d*: hello", rec.ID), messenger.posts[0].text)
	assert.NotContains(t, messenger.posts[0].text, "U123")

	stored := store.get(rec.ID)
	require.NotNil(t, stored)
	assert.True(t, stored.Approved)
	assert.True(t, stored.Viewed)
	assert.NotEmpty(t, stored.PublishedTS)

	require.Len(t, messenger.deletes, 1)
	assert.Equal(t, deletedMessage{channel: "C0STAGING", ts: rec.StagingTS}, messenger.deletes[0])
}

func TestViewDisapproveSkipsPublication(t *testing.T) {
	mod, store, messenger := newTestModerator()
	rec, err := mod.Stage("hello", "U123")
	require.NoError(t, err)
	messenger.posts = nil

	require.NoError(t, mod.View(rec.StagingTS, false))

	assert.Empty(t, messenger.posts)

	stored := store.get(rec.ID)
	require.NotNil(t, stored)
	assert.False(t, stored.Approved)
	assert.True(t, stored.Viewed)
	assert.Empty(t, stored.PublishedTS)

	require.Len(t, messenger.deletes, 1)
}

func TestViewUnknownStagingTS(t *testing.T) {
	mod, _, messenger := newTestModerator()

	err := mod.View("1700000000.999999", true)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	assert.Empty(t, messenger.posts)
	assert.Empty(t, messenger.deletes)
}

func TestViewDuplicateStagingTSFailsLoudly(t *testing.T) {
	mod, store, messenger := newTestModerator()
	// Force the forbidden state: two rows sharing one staging_ts.
	store.records[1] = &models.Confession{ID: 1, Text: "a", StagingTS: "1700000000.000001"}
	store.records[2] = &models.Confession{ID: 2, Text: "b", StagingTS: "1700000000.000001"}

	err := mod.View("1700000000.000001", true)
	assert.ErrorIs(t, err, storage.ErrConsistency)
	assert.Empty(t, messenger.posts)
	assert.Empty(t, messenger.deletes)
	assert.False(t, store.get(1).Viewed)
	assert.False(t, store.get(2).Viewed)
}

func TestViewAbortsWhenPublicationNotOK(t *testing.T) {
	mod, store, messenger := newTestModerator()
	rec, err := mod.Stage("hello", "U123")
	require.NoError(t, err)
	messenger.postNotOK = true

	err = mod.View(rec.StagingTS, true)
	assert.ErrorIs(t, err, slack.ErrMessaging)

	// Record stays in Staged for a manual retry; the staging message is
	// left in place.
	stored := store.get(rec.ID)
	assert.False(t, stored.Viewed)
	assert.False(t, stored.Approved)
	assert.Empty(t, messenger.deletes)
}

func TestViewSurfacesUpdateFailureAfterPublication(t *testing.T) {
	mod, store, messenger := newTestModerator()
	rec, err := mod.Stage("hello", "U123")
	require.NoError(t, err)
	messenger.posts = nil
	store.failUpdate = true

	err = mod.View(rec.StagingTS, true)
	assert.ErrorIs(t, err, storage.ErrWrite)

	// The public message is already out; the staging message must not be
	// deleted while the decision is unrecorded.
	assert.Len(t, messenger.posts, 1)
	assert.Empty(t, messenger.deletes)
}

func TestViewReportsStagingCleanupFailure(t *testing.T) {
	mod, store, messenger := newTestModerator()
	rec, err := mod.Stage("hello", "U123")
	require.NoError(t, err)
	messenger.deleteErr = fmt.Errorf("%w: message_not_found", slack.ErrMessaging)

	err = mod.View(rec.StagingTS, false)
	assert.ErrorIs(t, err, ErrStagingCleanup)

	// The decision itself is durably recorded; only the stale staging
	// message remains.
	stored := store.get(rec.ID)
	assert.True(t, stored.Viewed)
	assert.False(t, stored.Approved)
}

func TestSubmitApproveScenario(t *testing.T) {
	mod, store, messenger := newTestModerator()

	rec, err := mod.Stage("hello", "U123")
	require.NoError(t, err)
	require.Len(t, messenger.posts, 1)

	require.NoError(t, mod.View(rec.StagingTS, true))

	require.Len(t, messenger.posts, 2)
	assert.Equal(t, fmt.Sprintf("*%d*: hello", rec.ID), messenger.posts[1].text)

	stored := store.get(rec.ID)
	assert.True(t, stored.Approved)
	assert.True(t, stored.Viewed)
	require.Len(t, messenger.deletes, 1)
	assert.Equal(t, rec.StagingTS, messenger.deletes[0].ts)
}
