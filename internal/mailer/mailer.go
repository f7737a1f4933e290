// Package mailer renders booking notification emails and sends them over
// SMTP.  It is driven by the notification queue consumer.
package mailer

import (
	"context"
	"fmt"
	"log"
	"strings"

	"gopkg.in/gomail.v2"

	"github.com/iliyamo/hotel-booking/internal/config"
	"github.com/iliyamo/hotel-booking/internal/queue"
)

// Mailer turns booking events into emails.
type Mailer struct {
	from string
	send func(msgs ...*gomail.Message) error
}

// New returns a Mailer for cfg.  Without an SMTP host, messages are only
// logged.
func New(cfg config.MailConfig) *Mailer {
	m := &Mailer{from: cfg.From}
	if cfg.Enabled() {
		d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
		// one connection per event, closed after the batch
		m.send = d.DialAndSend
	} else {
		m.send = logOnly
	}
	return m
}

func logOnly(msgs ...*gomail.Message) error {
	for _, msg := range msgs {
		log.Printf("mailer: smtp disabled, dropping %q to %v", msg.GetHeader("Subject"), msg.GetHeader("To"))
	}
	return nil
}

// Handle implements queue.Handler.
func (m *Mailer) Handle(ctx context.Context, ev queue.BookingEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msgs := m.Render(ev)
	if len(msgs) == 0 {
		return nil
	}
	if err := m.send(msgs...); err != nil {
		return fmt.Errorf("send booking %d mail: %w", ev.BookingID, err)
	}
	log.Printf("mailer: sent %d message(s) for booking %d (%s)", len(msgs), ev.BookingID, ev.Type)
	return nil
}

// Render builds the messages for ev: a guest confirmation plus a hotel
// notice on creation, or a guest cancellation notice.
func (m *Mailer) Render(ev queue.BookingEvent) []*gomail.Message {
	switch ev.Type {
	case queue.EventBookingCreated:
		out := []*gomail.Message{m.guestConfirmation(ev)}
		if ev.HotelEmail != "" {
			out = append(out, m.hotelNotice(ev))
		}
		return out
	case queue.EventBookingCancelled:
		return []*gomail.Message{m.guestCancellation(ev)}
	}
	return nil
}

func (m *Mailer) message(to, subject, body string) *gomail.Message {
	msg := gomail.NewMessage(gomail.SetEncoding(gomail.Unencoded))
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return msg
}

func stay(ev queue.BookingEvent) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hotel:     %s\n", ev.HotelName)
	fmt.Fprintf(&b, "Room:      %s (%s), %.2f per night\n", ev.RoomNumber, ev.RoomType, ev.RoomPrice)
	fmt.Fprintf(&b, "Check-in:  %s\n", ev.CheckInDate)
	fmt.Fprintf(&b, "Check-out: %s\n", ev.CheckOutDate)
	fmt.Fprintf(&b, "Booking:   #%d\n", ev.BookingID)
	return b.String()
}

func (m *Mailer) guestConfirmation(ev queue.BookingEvent) *gomail.Message {
	body := fmt.Sprintf("Hello %s,\n\nYour booking is confirmed.\n\n%s\nWe look forward to your stay.\n", ev.UserName, stay(ev))
	return m.message(ev.UserEmail, fmt.Sprintf("Booking confirmed: %s", ev.HotelName), body)
}

func (m *Mailer) hotelNotice(ev queue.BookingEvent) *gomail.Message {
	body := fmt.Sprintf("A new booking was made by %s <%s>.\n\n%s", ev.UserName, ev.UserEmail, stay(ev))
	return m.message(ev.HotelEmail, fmt.Sprintf("New booking for room %s", ev.RoomNumber), body)
}

func (m *Mailer) guestCancellation(ev queue.BookingEvent) *gomail.Message {
	body := fmt.Sprintf("Hello %s,\n\nYour booking has been cancelled.\n\n%s", ev.UserName, stay(ev))
	return m.message(ev.UserEmail, fmt.Sprintf("Booking cancelled: %s", ev.HotelName), body)
}
