package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/civic-resolve/civic-resolve-api/databases"
	"github.com/civic-resolve/civic-resolve-api/models"
	templates "github.com/civic-resolve/civic-resolve-api/templates/html"
)

// emitTimeout caps the background persistence of a notification. Emission
// runs after the triggering write has committed and must not hold a request
// context.
const emitTimeout = 15 * time.Second

// Notice is one notification to be delivered to a user over every channel
// we have for them.
type Notice struct {
	UserID      primitive.ObjectID
	Type        models.NotificationType
	Title       string
	Message     string
	ComplaintID primitive.ObjectID
	HumanID     string
}

// Notifier fans a Notice out to the notification collection, connected
// websocket clients, and email. Delivery is best-effort on every channel;
// failures are logged and never surface to the caller.
type Notifier struct {
	NDB            databases.NotificationDatabase
	UDB            databases.UserDatabase
	Hub            *NotificationHub
	SendgridAPIKey string
	BaseURL        string
}

// Emit records and delivers a notification. Safe to call from request
// handlers after the main write has committed; it never blocks on email.
func (n *Notifier) Emit(notice Notice) {
	ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
	defer cancel()

	notification := models.Notification{
		ID:                primitive.NewObjectID(),
		UserID:            notice.UserID,
		Type:              notice.Type,
		Title:             notice.Title,
		Message:           notice.Message,
		ComplaintID:       &notice.ComplaintID,
		ComplaintIDString: notice.HumanID,
		IsRead:            false,
		CreatedAt:         primitive.NewDateTimeFromTime(time.Now()),
	}
	if notice.HumanID != "" {
		notification.ActionURL = fmt.Sprintf("%s/complaints/%s", n.BaseURL, notice.HumanID)
	}
	if _, err := n.NDB.InsertOne(ctx, notification); err != nil {
		zap.S().Errorw("failed to persist notification",
			"userId", notice.UserID.Hex(),
			"type", notice.Type,
			"error", err)
	}

	if n.Hub != nil {
		n.Hub.SendToUser(notice.UserID.Hex(), notification)
	}

	if n.SendgridAPIKey != "" {
		go n.sendEmail(notice)
	}
}

// sendEmail looks up the recipient's address and sends a branded email.
// Runs in its own goroutine so slow SMTP never delays a response.
func (n *Notifier) sendEmail(notice Notice) {
	ctx, cancel := context.WithTimeout(context.Background(), emitTimeout)
	defer cancel()

	user, err := n.UDB.FindOne(ctx, bson.M{"_id": notice.UserID})
	if err != nil {
		zap.S().Errorw("failed to look up notification recipient",
			"userId", notice.UserID.Hex(),
			"error", err)
		return
	}
	if user.Email == "" {
		return
	}

	body := notice.Message
	if notice.HumanID != "" {
		body = fmt.Sprintf("%s\n\nTrack it here: %s/complaints/%s", notice.Message, n.BaseURL, notice.HumanID)
	}

	from := mail.NewEmail("Civic Resolve", "no-reply@civic-resolve.org")
	to := mail.NewEmail(user.Name, user.Email)
	htmlContent := templates.RenderGenericEmail(notice.Title, body)
	message := mail.NewSingleEmail(from, notice.Title, to, body, htmlContent)

	client := sendgrid.NewSendClient(n.SendgridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		zap.S().Errorw("failed to send notification email",
			"userId", notice.UserID.Hex(),
			"error", err)
		return
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid rejected notification email",
			"userId", notice.UserID.Hex(),
			"statusCode", response.StatusCode,
			"body", response.Body)
	}
}
