package services

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/justsurfingit/hireboard/internal/models"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"gorm.io/gorm"
)

const (
	bootstrapQuery   = "subject:(application OR interview OR update OR offer OR rejected OR status) newer_than:7d"
	syncCycleTimeout = 2 * time.Minute
)

// inboxAnalyzer is the part of LLMService the inbox sync needs.
type inboxAnalyzer interface {
	AnalyzeEmailStatus(ctx context.Context, company, subject, body string) (EmailAnalysis, error)
	IdentifyJobRole(ctx context.Context, titles []string, subject, body string) (int, error)
}

type EmailService struct {
	DB             *gorm.DB
	LLMService     inboxAnalyzer
	MatcherService *MatcherService
	GmailClient    *gmail.Service
	Interval       time.Duration
	Logger         *log.Logger
}

func NewEmailService(db *gorm.DB, llm *LLMService, gmailSvc *gmail.Service, matcher *MatcherService, interval time.Duration, logger *log.Logger) *EmailService {
	return &EmailService{
		DB:             db,
		LLMService:     llm,
		GmailClient:    gmailSvc,
		MatcherService: matcher,
		Interval:       interval,
		Logger:         logger.WithPrefix("inbox"),
	}
}

// Run syncs immediately and then on every tick until ctx is done.
func (s *EmailService) Run(ctx context.Context) error {
	if s.GmailClient == nil {
		s.Logger.Warn("Gmail watcher disabled (no client). Check credentials.")
		return nil
	}

	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		if err := s.SyncEmails(ctx); err != nil {
			s.Logger.Error("sync cycle failed", "err", err)
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// SyncEmails runs one sync cycle: fetch new candidate emails, process the ones
// not seen before and advance the history bookmark.
func (s *EmailService) SyncEmails(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, syncCycleTimeout)
	defer cancel()
	db := s.DB.WithContext(ctx)

	s.Logger.Debug("starting sync cycle")

	var user models.User
	if err := db.FirstOrCreate(&user, models.User{Email: "default"}).Error; err != nil {
		return fmt.Errorf("load sync user: %w", err)
	}

	var (
		messages     []*gmail.Message
		newHistoryID uint64
		err          error
	)
	if user.LastHistoryID == 0 {
		s.Logger.Info("first run, bootstrapping from the last 7 days")
		messages, newHistoryID, err = s.performFullSync(ctx)
	} else {
		messages, newHistoryID, err = s.performIncrementalSync(ctx, user.LastHistoryID)
		if isHistoryExpiredError(err) {
			s.Logger.Warn("history id expired, falling back to full sync", "history_id", user.LastHistoryID)
			messages, newHistoryID, err = s.performFullSync(ctx)
		}
	}
	if err != nil {
		return err
	}

	if len(messages) > 0 {
		s.Logger.Info("processing candidate emails", "count", len(messages))
	}
	for _, msg := range messages {
		var count int64
		if err := db.Model(&models.ProcessedEmail{}).Where("id = ?", msg.Id).Count(&count).Error; err != nil {
			return fmt.Errorf("check processed email %s: %w", msg.Id, err)
		}
		if count > 0 {
			continue
		}
		if err := s.processSingleEmail(ctx, msg); err != nil {
			s.Logger.Error("email not processed", "id", msg.Id, "err", err)
			continue
		}
		if err := db.Create(&models.ProcessedEmail{ID: msg.Id}).Error; err != nil {
			return fmt.Errorf("mark email %s processed: %w", msg.Id, err)
		}
	}

	if newHistoryID > user.LastHistoryID {
		if err := db.Model(&models.User{}).Where("id = ?", user.ID).Update("last_history_id", newHistoryID).Error; err != nil {
			return fmt.Errorf("save history id: %w", err)
		}
		s.Logger.Debug("history updated", "history_id", newHistoryID)
	}
	return nil
}

// performFullSync scans the last 7 days and returns the current history id as
// the new bookmark.
func (s *EmailService) performFullSync(ctx context.Context) ([]*gmail.Message, uint64, error) {
	var resp *gmail.ListMessagesResponse
	err := retry(ctx, s.Logger, 3, time.Second, func() error {
		var e error
		resp, e = s.GmailClient.Users.Messages.List("me").Q(bootstrapQuery).MaxResults(50).Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list messages: %w", err)
	}

	profile, err := s.GmailClient.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, 0, fmt.Errorf("get profile: %w", err)
	}
	return s.expandMessages(ctx, resp.Messages), profile.HistoryId, nil
}

// performIncrementalSync asks only for messages added since startID.
func (s *EmailService) performIncrementalSync(ctx context.Context, startID uint64) ([]*gmail.Message, uint64, error) {
	var resp *gmail.ListHistoryResponse
	err := retry(ctx, s.Logger, 3, time.Second, func() error {
		var e error
		resp, e = s.GmailClient.Users.History.List("me").
			StartHistoryId(startID).
			HistoryTypes("messageAdded").
			Context(ctx).Do()
		return e
	})
	if err != nil {
		return nil, 0, err
	}

	var added []*gmail.Message
	for _, h := range resp.History {
		for _, m := range h.MessagesAdded {
			if m.Message != nil {
				added = append(added, m.Message)
			}
		}
	}
	return s.expandMessages(ctx, added), resp.HistoryId, nil
}

func (s *EmailService) expandMessages(ctx context.Context, headers []*gmail.Message) []*gmail.Message {
	var full []*gmail.Message
	for _, h := range headers {
		err := retry(ctx, s.Logger, 2, 500*time.Millisecond, func() error {
			msg, err := s.GmailClient.Users.Messages.Get("me", h.Id).Context(ctx).Do()
			if err == nil {
				full = append(full, msg)
			}
			return err
		})
		if err != nil {
			s.Logger.Warn("skipping message", "id", h.Id, "err", err)
		}
	}
	return full
}

// processSingleEmail matches the email to a job, asks the model what it
// means and records any status change.
func (s *EmailService) processSingleEmail(ctx context.Context, msg *gmail.Message) error {
	headers := parseHeaders(msg)
	subject, sender := headers["Subject"], headers["From"]
	logger := s.Logger.With("subject", truncate(subject, 40))
	body := getEmailBody(msg)

	company, err := s.MatcherService.FindCompanyFromEmail(ctx, subject, sender)
	if err != nil {
		return err
	}
	if company == nil {
		logger.Debug("skipped: no tracked company matches", "from", sender)
		return nil
	}

	db := s.DB.WithContext(ctx)
	var jobs []models.Job
	if err := db.Where("company_id = ? AND status NOT IN ?", company.ID, models.TerminalStatuses).Find(&jobs).Error; err != nil {
		return fmt.Errorf("load active jobs: %w", err)
	}
	if len(jobs) == 0 {
		logger.Debug("skipped: no active jobs", "company", company.Name)
		return nil
	}

	target := &jobs[0]
	if len(jobs) > 1 {
		titles := make([]string, len(jobs))
		for i, j := range jobs {
			titles[i] = j.Title
		}
		idx, err := s.LLMService.IdentifyJobRole(ctx, titles, subject, body)
		if err != nil {
			return fmt.Errorf("identify job role: %w", err)
		}
		if idx < 0 {
			logger.Info("skipped: could not tell which job the email is about", "candidates", titles)
			return nil
		}
		target = &jobs[idx]
	}

	analysis, err := s.LLMService.AnalyzeEmailStatus(ctx, company.Name, subject, body)
	if err != nil {
		return fmt.Errorf("analyze email: %w", err)
	}
	logger.Info("analyzed email", "job", target.Title, "status", analysis.Status, "summary", analysis.Summary)

	if !statusChanges(target.Status, analysis.Status) {
		return nil
	}

	return db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(target).Update("status", analysis.Status).Error; err != nil {
			return fmt.Errorf("update job status: %w", err)
		}
		event := models.JobEvent{
			JobID:     target.ID,
			EventType: "EMAIL_UPDATE",
			Details:   fmt.Sprintf("Status changed to %s. Summary: %s", analysis.Status, analysis.Summary),
		}
		return tx.Create(&event).Error
	})
}

// statusChanges reports whether an analyzed status should replace current.
func statusChanges(current, analyzed string) bool {
	switch analyzed {
	case models.StatusInterview, models.StatusOffer, models.StatusRejected:
		return analyzed != current
	default:
		return false
	}
}

// retry runs f up to attempts times with exponential backoff. An expired
// history id is returned immediately so the caller can fall back to a full
// sync.
func retry(ctx context.Context, logger *log.Logger, attempts int, sleep time.Duration, f func() error) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = f(); err == nil {
			return nil
		}
		if isHistoryExpiredError(err) {
			return err
		}
		if i == attempts-1 {
			break
		}
		logger.Warn("gmail API error, retrying", "err", err, "in", sleep)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(sleep):
		}
		sleep *= 2
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, err)
}

func isHistoryExpiredError(err error) bool {
	var gErr *googleapi.Error
	return errors.As(err, &gErr) && gErr.Code == http.StatusNotFound
}

func parseHeaders(msg *gmail.Message) map[string]string {
	res := make(map[string]string)
	if msg.Payload == nil {
		return res
	}
	for _, h := range msg.Payload.Headers {
		res[h.Name] = h.Value
	}
	return res
}

// getEmailBody prefers the top-level body, then a text/plain part, then a
// text/html part.
func getEmailBody(msg *gmail.Message) string {
	if msg.Payload == nil {
		return ""
	}
	if msg.Payload.Body != nil && msg.Payload.Body.Data != "" {
		return decodePart(msg.Payload.Body.Data)
	}
	for _, mime := range []string{"text/plain", "text/html"} {
		for _, part := range msg.Payload.Parts {
			if part.MimeType == mime && part.Body != nil && part.Body.Data != "" {
				return decodePart(part.Body.Data)
			}
		}
	}
	return ""
}

func decodePart(data string) string {
	d, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Gmail sometimes omits padding
		d, _ = base64.RawURLEncoding.DecodeString(data)
	}
	return string(d)
}
