package email

import (
	"context"
	stdhtml "html"
	"strings"
	"testing"
)

func sampleMessage() AppointmentMessage {
	return AppointmentMessage{
		TechnicianName:  "Awa <Tech>",
		TechnicianPhone: "+237650000000",
		Device:          "Tecno Spark",
		ScheduledDate:   "2026-03-11",
		TimeSlot:        "10:00-12:00",
		Address:         "12 Rue de la Joie",
		Reason:          "changed plans",
	}
}

func TestRenderAppointmentTemplates(t *testing.T) {
	for _, name := range []string{"confirmation.html", "reminder.html", "cancellation.html"} {
		html, err := renderAppointment(name, "Heading", "", sampleMessage())
		if err != nil {
			t.Fatalf("%s: render error = %v", name, err)
		}
		// html/template escapes "+" as "&#43;"; compare the text a mail client shows.
		text := stdhtml.UnescapeString(html)
		for _, want := range []string{"2026-03-11", "10:00-12:00", "12 Rue de la Joie", "+237650000000", "Awa <Tech>"} {
			if !strings.Contains(text, want) {
				t.Errorf("%s: missing %q", name, want)
			}
		}
		if strings.Contains(html, "<Tech>") {
			t.Errorf("%s: technician name must be escaped", name)
		}
	}
}

func TestCancellationShowsReason(t *testing.T) {
	html, err := renderAppointment("cancellation.html", "Cancelled", "", sampleMessage())
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(html, "changed plans") {
		t.Fatal("cancellation must include the reason")
	}

	msg := sampleMessage()
	msg.Reason = ""
	html, err = renderAppointment("cancellation.html", "Cancelled", "", msg)
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(html, "Reason:") {
		t.Fatal("empty reason must be omitted")
	}
}

func TestBuildMessageRejectsBadRecipient(t *testing.T) {
	s := NewSMTPSender("localhost", 25, "", "", "noreply@example.com", "Repairs")
	if _, err := s.buildMessage("not-an-address", subjectConfirmation, "<p>x</p>"); err == nil {
		t.Fatal("expected error for invalid recipient")
	}
	if _, err := s.buildMessage("customer@example.com", subjectConfirmation, "<p>x</p>"); err != nil {
		t.Fatalf("valid recipient: %v", err)
	}
}

func TestNoopSender(t *testing.T) {
	var s Sender = NoopSender{}
	if err := s.SendAppointmentReminder(context.Background(), "a@example.com", sampleMessage()); err != nil {
		t.Fatal(err)
	}
}
