package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/checkin-scheduler/internal/checkin"
	"github.com/example/checkin-scheduler/internal/scheduler"
	"github.com/example/checkin-scheduler/internal/southwest"
)

func TestRootHasCommands(t *testing.T) {
	root := NewRootCmd()
	for _, name := range []string{"checkin", "server", "outcomes", "token", "timezone", "version"} {
		if c, _, err := root.Find([]string{name}); err != nil || c.Name() != name {
			t.Errorf("missing command %s", name)
		}
	}
}

func TestVersion(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"version"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(out.String(), "checkinsched dev") {
		t.Errorf("output = %q", out.String())
	}
}

func TestCheckinRequiresFlags(t *testing.T) {
	root := NewRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"checkin", "--confirmation", "ABC123"})
	if err := root.Execute(); err == nil {
		t.Fatal("expected missing flag error")
	}
}

func TestTokenPrintsHash(t *testing.T) {
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"token"})
	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "TRIGGER_TOKEN=trg_") || !strings.Contains(out.String(), "TRIGGER_TOKEN_HASH='$2a$") {
		t.Errorf("output = %q", out.String())
	}
}

func TestPrintReport(t *testing.T) {
	opens := time.Date(2025, 3, 4, 18, 0, 0, 0, time.UTC)
	rep := scheduler.Report{
		Reservation: "ABC123",
		Legs:        3,
		Outcomes: []checkin.Outcome{
			{Leg: checkin.Leg{Index: 0, AirportCode: "OAK", AirportName: "Oakland", AirportState: "CA"}, State: checkin.Completed,
				Passes: []southwest.Passenger{{Name: "Barack Obama", BoardingGroup: "A", BoardingPosition: "21"}}},
			{Leg: checkin.Leg{Index: 1, AirportCode: "LAS"}, State: checkin.Deferred, Remaining: 3 * time.Hour,
				Window: checkin.Window{OpensAt: opens}},
			{Leg: checkin.Leg{Index: 2, AirportCode: "SJC"}, State: checkin.Failed, Err: errors.New("exhausted")},
		},
	}
	var out bytes.Buffer
	err := printReport(&out, rep)
	if err == nil || !strings.Contains(err.Error(), "1 of 3") {
		t.Errorf("err = %v", err)
	}
	got := out.String()
	for _, want := range []string{
		"leg 0 Oakland, CA: Barack Obama got A21",
		"leg 1 LAS: too early, window opens in 3h0m0s (2025-03-04T18:00:00Z)",
		"leg 2 SJC: failed: exhausted",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("missing %q in\n%s", want, got)
		}
	}
}

func TestPrintReportNoLegs(t *testing.T) {
	var out bytes.Buffer
	if err := printReport(&out, scheduler.Report{Reservation: "ABC123"}); err != nil {
		t.Fatal(err)
	}
	if out.String() != "ABC123: no upcoming flights\n" {
		t.Errorf("output = %q", out.String())
	}
}
