package dashboard

import (
	"context"
	"fmt"
	"log/slog"

	"orgsite-client/internal/api"
	"orgsite-client/internal/dialog"
	"orgsite-client/internal/domain"
	"orgsite-client/internal/notify"
	"orgsite-client/internal/observability"
	"orgsite-client/internal/service"
)

const (
	BookingDialogID = "service-booking-modal"

	MsgFillRequired     = "Please fill all required fields"
	MsgBookingSubmitted = "Service booking submitted! We will contact you soon."
	MsgServiceNotFound  = "Service not found"
)

// BookingDialogs is the modal surface the booking flow needs.
type BookingDialogs interface {
	Dialogs
	Register(id string, opts dialog.Options) bool
}

// HomeContent is what the public landing page shows.
type HomeContent struct {
	Programs []domain.Record
	Services []domain.Record
}

// Home is the public landing page.
type Home struct {
	data     *service.Data
	guard    Guard
	notifier notify.Notifier
	dialogs  BookingDialogs
}

func NewHome(data *service.Data, guard Guard, notifier notify.Notifier, dialogs BookingDialogs) *Home {
	return &Home{data: data, guard: guard, notifier: notifier, dialogs: dialogs}
}

// Load reads programs and services through the cache. A failing section is
// left empty.
func (h *Home) Load(ctx context.Context) HomeContent {
	var content HomeContent
	logger := observability.FromContext(ctx)

	if res := h.data.Programs().Load(ctx, false); res.Success {
		content.Programs = res.Records()
	} else {
		logger.Warn("failed to load programs", slog.String("error", res.Error))
	}

	if res := h.data.Services().Load(ctx, false); res.Success {
		content.Services = res.Records()
	} else {
		logger.Warn("failed to load services", slog.String("error", res.Error))
	}
	return content
}

// Enroll opens the booking dialog for a cached service. It requires a session.
func (h *Home) Enroll(ctx context.Context, serviceID string) error {
	if !h.guard.RequireAuth(ctx, "") {
		return domain.ErrAuthRequired
	}

	svc, ok := h.data.Services().ByID(serviceID)
	if !ok {
		h.notifier.Show(MsgServiceNotFound, notify.Error)
		return fmt.Errorf("%w: service %s", domain.ErrInvalidRecord, serviceID)
	}

	// Register is a no-op after the first booking
	h.dialogs.Register(BookingDialogID, dialog.Options{
		Title: "Book " + svc.Text("name"),
		Buttons: []dialog.Button{
			{Text: "Cancel", Action: dialog.ActionCancel},
			{Text: "Book Now", Action: "book"},
		},
		CloseButton: true,
	})
	h.dialogs.Open(BookingDialogID, map[string]any{
		"service_id": svc.ID(),
		"service":    svc.Text("name"),
		"price":      svc["price"],
	})
	return nil
}

// SubmitBooking validates the booking form. Bookings are not sent anywhere;
// the user is told they will be contacted.
func (h *Home) SubmitBooking(_ context.Context, fields map[string]any) bool {
	if date, _ := fields["date"].(string); date == "" {
		h.notifier.Show(MsgFillRequired, notify.Error)
		return false
	}
	h.notifier.Show(MsgBookingSubmitted, notify.Success)
	h.dialogs.Close(BookingDialogID)
	return true
}

// News is the news listing page.
type News struct {
	data *service.Data
}

func NewNews(data *service.Data) *News {
	return &News{data: data}
}

// Load returns the posts. Reading news needs a session.
func (n *News) Load(ctx context.Context) ([]domain.Record, api.Result) {
	res := n.data.Blog().Load(ctx, false)
	if !res.Success {
		return nil, res
	}
	return res.Records(), res
}
