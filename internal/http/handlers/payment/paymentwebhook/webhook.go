// Package paymentwebhook принимает уведомления платёжного провайдера об оплате уровня.
//
// Подпись тела проверяется по заголовку X-Api-Signature (HMAC-SHA256, base64).
// Доступ создаётся только для события payment.succeeded, остальные события подтверждаются без изменений.
package paymentwebhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/middleware"
	"github.com/google/uuid"

	"github.com/magabrotheeeer/level-progression/internal/lib/sl"
	"github.com/magabrotheeeer/level-progression/internal/models"
	"github.com/magabrotheeeer/level-progression/internal/services/purchase"
)

// PaymentSucceeded событие успешной оплаты.
const PaymentSucceeded = "payment.succeeded"

// SignatureHeader заголовок с подписью тела.
const SignatureHeader = "X-Api-Signature"

// Service описывает обработку завершённой оплаты.
type Service interface {
	HandlePaymentCompleted(ctx context.Context, ev models.PaymentCompleted) error
}

// Handler обрабатывает webhook платёжного провайдера.
type Handler struct {
	log           *slog.Logger // Логгер для записи информации и ошибок
	service       Service
	webhookSecret string // Секрет для проверки подписи
}

// New создает новый Handler.
func New(log *slog.Logger, service Service, secret string) *Handler {
	return &Handler{
		log:           log,
		service:       service,
		webhookSecret: secret,
	}
}

// Payload тело уведомления провайдера.
type Payload struct {
	Event  string `json:"event"`
	Object struct {
		ID         string    `json:"id"`     // payment ID
		Status     string    `json:"status"` // статус платежа
		CapturedAt time.Time `json:"captured_at"`
		Amount     struct {
			Value    string `json:"value"`
			Currency string `json:"currency"`
		} `json:"amount"`
		Metadata map[string]string `json:"metadata"` // user_id, level_id, duration_days
	} `json:"object"`
}

// Sign вычисляет подпись тела для заголовка X-Api-Signature.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

func (h *Handler) verifySignature(body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(h.webhookSecret, body)), []byte(signature))
}

// ToEvent превращает уведомление в событие завершённой оплаты.
func (p *Payload) ToEvent() (models.PaymentCompleted, error) {
	ev := models.PaymentCompleted{
		EventID: p.Object.ID,
		UserID:  p.Object.Metadata["user_id"],
		LevelID: models.LevelID(p.Object.Metadata["level_id"]),
		PaidAt:  p.Object.CapturedAt,
	}
	if ev.EventID == "" {
		ev.EventID = uuid.NewString()
	}
	if raw := p.Object.Metadata["duration_days"]; raw != "" {
		days, err := strconv.Atoi(raw)
		if err != nil {
			return ev, fmt.Errorf("%w: duration_days %q", purchase.ErrInvalidEvent, raw)
		}
		ev.DurationDays = days
	}
	return ev, nil
}

// ServeHTTP godoc
// @Summary Webhook платёжного провайдера
// @Description Создаёт доступ к уровню после события payment.succeeded. Тело подписывается HMAC-SHA256.
// @Tags Payments
// @Accept  json
// @Param X-Api-Signature header string true "base64(HMAC-SHA256(body))"
// @Success 200 "Событие принято"
// @Failure 400 "Некорректное тело"
// @Failure 401 "Неверная подпись"
// @Failure 422 "Некорректные данные оплаты"
// @Failure 500 "Ошибка обработки, провайдер повторит запрос"
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payment.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(r.Body)
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	signature := r.Header.Get(SignatureHeader)
	if signature == "" || !h.verifySignature(body, signature) {
		log.Error("invalid or missing webhook signature")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	var payload Payload
	if err := json.Unmarshal(body, &payload); err != nil {
		log.Error("failed to unmarshal webhook payload", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	if strings.ToLower(payload.Event) != PaymentSucceeded {
		log.Info("ignored webhook event", slog.String("event", payload.Event))
		w.WriteHeader(http.StatusOK)
		return
	}

	ev, err := payload.ToEvent()
	if err == nil {
		err = h.service.HandlePaymentCompleted(r.Context(), ev)
	}
	if err != nil {
		log.Error("failed to process webhook event", sl.Err(err))
		if errors.Is(err, purchase.ErrInvalidEvent) {
			w.WriteHeader(http.StatusUnprocessableEntity)
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	log.Info("webhook processed successfully", slog.String("event", payload.Event), slog.String("payment_id", payload.Object.ID))
	w.WriteHeader(http.StatusOK)
}
