// Package service holds the moderation workflow: a confession moves
// Submitted -> Staged -> {Published, Rejected}, with every side effect
// ordered so the worst failure leaves only a stale staging message.
package service

import (
	"errors"
	"fmt"

	"slack-confessions/internal/logger"
	"slack-confessions/internal/models"
	"slack-confessions/internal/slack"
)

// ErrStagingCleanup marks a decision that was durably recorded but whose
// staging message could not be deleted. Non-fatal residue: an operator
// removes the stale message by hand.
var ErrStagingCleanup = errors.New("staging message cleanup failed")

// ConfessionStore is the narrow record-store surface the workflow needs.
// Implemented by storage.ConfessionRepository; tests substitute an
// in-memory fake.
type ConfessionStore interface {
	Create(text, submitterID string) (*models.Confession, error)
	GetByStagingTS(stagingTS string) (*models.Confession, error)
	Update(id uint, fields map[string]interface{}) error
	Delete(id uint) error
}

// Messenger is the outbound Slack surface the workflow needs.
type Messenger interface {
	PostMessage(channel, text string, blocks []slack.Block) (slack.MessageHandle, error)
	DeleteMessage(channel, ts string) error
}

// Moderator orchestrates staging, moderation decisions, and publication.
// All collaborators are injected; the struct holds no mutable state, so
// one instance serves concurrent requests.
type Moderator struct {
	store          ConfessionStore
	messenger      Messenger
	stagingChannel string
	publicChannel  string
	recordURLBase  string
}

// NewModerator wires the workflow to its collaborators.
func NewModerator(store ConfessionStore, messenger Messenger, stagingChannel, publicChannel, recordURLBase string) *Moderator {
	return &Moderator{
		store:          store,
		messenger:      messenger,
		stagingChannel: stagingChannel,
		publicChannel:  publicChannel,
		recordURLBase:  recordURLBase,
	}
}

// Stage records a new confession and announces it in the staging channel
// for review. Two-phase with compensation: the record is created first,
// and deleted again if the staging post does not come back ok. On
// success the staging message timestamp is persisted as the record's
// correlation key.
func (m *Moderator) Stage(text, submitterID string) (*models.Confession, error) {
	record, err := m.store.Create(text, submitterID)
	if err != nil {
		return nil, fmt.Errorf("staging confession: %w", err)
	}

	recordURL := ""
	if m.recordURLBase != "" {
		recordURL = fmt.Sprintf("%s/%d", m.recordURLBase, record.ID)
	}
	blocks := slack.StagingBlocks(record.ID, text, recordURL)
	fallback := fmt.Sprintf("Confession #%d pending review", record.ID)

	handle, err := m.messenger.PostMessage(m.stagingChannel, fallback, blocks)
	if err != nil || !handle.OK {
		// Compensate: the record must not outlive a failed announcement.
		if delErr := m.store.Delete(record.ID); delErr != nil {
			logger.Errorf("rollback of confession %d failed: %v", record.ID, delErr)
		}
		if err == nil {
			err = fmt.Errorf("%w: staging post not ok: %s", slack.ErrMessaging, handle.Error)
		}
		return nil, fmt.Errorf("staging confession %d: %w", record.ID, err)
	}

	if err := m.store.Update(record.ID, map[string]interface{}{"staging_ts": handle.TS}); err != nil {
		// The staging message is up but the record cannot be correlated
		// with it. Surfaced, not rolled back.
		logger.Errorf("confession %d staged as %s but staging_ts not persisted: %v", record.ID, handle.TS, err)
		return nil, fmt.Errorf("staging confession %d: %w", record.ID, err)
	}

	record.StagingTS = handle.TS
	logger.Infof("confession %d staged as %s", record.ID, handle.TS)
	return record, nil
}

// View applies a moderation decision to the confession staged under
// stagingTS. Ordering is fixed: publish (if approving) before persisting
// the decision, persist before deleting the staging message. That bounds
// the worst failure to a stale staging message rather than a decision
// recorded but never published, or published twice.
func (m *Moderator) View(stagingTS string, approved bool) error {
	record, err := m.store.GetByStagingTS(stagingTS)
	if err != nil {
		return fmt.Errorf("moderating confession: %w", err)
	}

	publishedTS := ""
	if approved {
		handle, err := m.messenger.PostMessage(m.publicChannel, slack.PublicText(record.ID, record.Text), nil)
		if err != nil {
			return fmt.Errorf("publishing confession %d: %w", record.ID, err)
		}
		if !handle.OK {
			// Record stays in Staged for a manual retry.
			return fmt.Errorf("%w: publishing confession %d: %s", slack.ErrMessaging, record.ID, handle.Error)
		}
		publishedTS = handle.TS
	}

	fields := map[string]interface{}{
		"approved":     approved,
		"viewed":       true,
		"published_ts": publishedTS,
	}
	if err := m.store.Update(record.ID, fields); err != nil {
		// If approving, the public message is already out. Surfaced, not
		// rolled back.
		return fmt.Errorf("recording decision for confession %d: %w", record.ID, err)
	}

	if err := m.messenger.DeleteMessage(m.stagingChannel, stagingTS); err != nil {
		logger.Warningf("confession %d decided but staging message %s not deleted: %v", record.ID, stagingTS, err)
		return fmt.Errorf("%w: confession %d: %v", ErrStagingCleanup, record.ID, err)
	}

	logger.Infof("confession %d moderated: approved=%v", record.ID, approved)
	return nil
}
