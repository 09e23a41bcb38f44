package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"net/smtp"
	"time"

	"campark/internal/logger"
	"campark/internal/metrics"
	"campark/internal/receipt"

	"github.com/redis/go-redis/v9"
)

const (
	queueKey       = "notifications"
	failedQueueKey = "notifications:failed"
	maxTries       = 3
)

type EmailJob struct {
	To      string    `json:"to"`
	Name    string    `json:"name"`
	Type    string    `json:"type"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	Tries   int       `json:"tries"`
	Created time.Time `json:"created"`
}

type Service struct {
	redis    *redis.Client
	from     string
	fromName string
	smtpHost string
	smtpPort string
	smtpUser string
	smtpPass string
}

func New(fromEmail, fromName, smtpHost, smtpPort, smtpUser, smtpPass, redisAddr string) *Service {
	return &Service{
		redis: redis.NewClient(&redis.Options{
			Addr: redisAddr,
		}),
		from:     fromEmail,
		fromName: fromName,
		smtpHost: smtpHost,
		smtpPort: smtpPort,
		smtpUser: smtpUser,
		smtpPass: smtpPass,
	}
}

func (s *Service) Send(ctx context.Context, to, name, notificationType, subject, body string) error {
	job := EmailJob{
		To:      to,
		Name:    name,
		Type:    notificationType,
		Subject: subject,
		Body:    body,
		Tries:   0,
		Created: time.Now(),
	}

	data, err := json.Marshal(job)
	if err != nil {
		logger.Error("failed to marshal notification job", "error", err)
		return err
	}

	if err := s.redis.LPush(ctx, queueKey, data).Err(); err != nil {
		logger.Error("failed to queue notification", "to", to, "error", err)
		return err
	}

	metrics.RecordNotification(notificationType, "queued")
	logger.Info("notification queued", "type", notificationType, "to", to)
	return nil
}

// Start runs the delivery loop until the context is cancelled.
func (s *Service) Start(ctx context.Context) {
	logger.Info("notification worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("notification worker stopped")
			return
		default:
			s.processNext(ctx)
		}
	}
}

func (s *Service) processNext(ctx context.Context) {
	result, err := s.redis.BRPop(ctx, 2*time.Second, queueKey).Result()
	if err != nil {
		return
	}

	var job EmailJob
	if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
		logger.Error("bad notification payload", "error", err)
		return
	}

	job.Tries++
	if err := s.sendNow(job); err != nil {
		logger.Error("notification delivery failed",
			"to", job.To, "attempt", job.Tries, "error", err)

		if job.Tries < maxTries {
			time.Sleep(5 * time.Second)
			data, _ := json.Marshal(job)
			s.redis.LPush(context.Background(), queueKey, data)
			return
		}

		metrics.RecordNotification(job.Type, "failed")
		s.saveFailed(job, err)
		return
	}

	metrics.RecordNotification(job.Type, "sent")
	logger.Info("notification sent", "type", job.Type, "to", job.To)
}

func (s *Service) sendNow(job EmailJob) error {
	message := fmt.Sprintf("From: %s <%s>\r\n", s.fromName, s.from)
	message += fmt.Sprintf("To: %s\r\n", job.To)
	message += fmt.Sprintf("Subject: %s\r\n", job.Subject)
	message += "\r\n" + job.Body

	var auth smtp.Auth
	if s.smtpUser != "" && s.smtpPass != "" {
		auth = smtp.PlainAuth("", s.smtpUser, s.smtpPass, s.smtpHost)
	}

	addr := s.smtpHost + ":" + s.smtpPort
	return smtp.SendMail(addr, auth, s.from, []string{job.To}, []byte(message))
}

func (s *Service) saveFailed(job EmailJob, err error) {
	failed := map[string]interface{}{
		"job":   job,
		"error": err.Error(),
		"time":  time.Now(),
	}
	data, _ := json.Marshal(failed)
	s.redis.LPush(context.Background(), failedQueueKey, data)
	logger.Error("notification moved to failed queue", "to", job.To)
}

func (s *Service) QueueLength(ctx context.Context) int64 {
	length, _ := s.redis.LLen(ctx, queueKey).Result()
	metrics.NotificationQueueLength.Set(float64(length))
	return length
}

func (s *Service) Close() error {
	return s.redis.Close()
}

func (s *Service) SendSessionReceipt(ctx context.Context, email, name, lotName, spotNumber string, feeCents int64, currency string, endTime time.Time) error {
	subject := "Parking Receipt - " + lotName
	body := fmt.Sprintf(`Hi %s,

Thanks for parking with us. Your session is complete.

Lot: %s
Spot: %s
Ended: %s
Total: %s

Your full PDF receipt is available in the app under session history.

- CamPark Team`, name, lotName, spotNumber, endTime.Format("Jan 2, 2006 at 3:04 PM"), receipt.FormatAmount(feeCents, currency))

	return s.Send(ctx, email, name, "session_receipt", subject, body)
}

func (s *Service) SendTopUpConfirmation(ctx context.Context, email, name string, amountCents, balanceCents int64, currency string) error {
	subject := "Wallet Top-Up Confirmed"
	body := fmt.Sprintf(`Hi %s,

Your wallet top-up went through.

Amount: %s
New balance: %s

- CamPark Team`, name, receipt.FormatAmount(amountCents, currency), receipt.FormatAmount(balanceCents, currency))

	return s.Send(ctx, email, name, "topup_confirmation", subject, body)
}

func (s *Service) SendPaymentFailed(ctx context.Context, email, name string, feeCents int64, currency string) error {
	subject := "Parking Payment Failed"
	body := fmt.Sprintf(`Hi %s,

We could not charge your wallet %s for your last parking session.
Top up your wallet and settle the outstanding fee from session history.

- CamPark Team`, name, receipt.FormatAmount(feeCents, currency))

	return s.Send(ctx, email, name, "payment_failed", subject, body)
}
