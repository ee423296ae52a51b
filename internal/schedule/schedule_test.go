package schedule

import (
	"strings"
	"testing"
	"time"
)

func TestActiveServicesWeekdayAndExceptions(t *testing.T) {
	calendar := strings.NewReader(
		"service_id,monday,tuesday,wednesday,thursday,friday,saturday,sunday,start_date,end_date\n" +
			"weekday,1,1,1,1,1,0,0,20220101,20221231\n" +
			"weekend,0,0,0,0,0,1,1,20220101,20221231\n",
	)
	calendarDates := strings.NewReader(
		"service_id,date,exception_type\n" +
			"weekday,20220704,2\n" +
			"holiday-special,20220704,1\n",
	)

	services, err := ActiveServices(calendar, calendarDates, 20220704, time.Monday)
	if err != nil {
		t.Fatalf("ActiveServices() error = %v", err)
	}

	if _, ok := services["weekday"]; ok {
		t.Error("weekday service should have been removed by the calendar_dates exception")
	}
	if _, ok := services["holiday-special"]; !ok {
		t.Error("holiday-special service should have been added by the calendar_dates exception")
	}
}

func TestArchiveHeadwayAndTravelTime(t *testing.T) {
	trips := []Trip{
		{RouteID: "10", ServiceID: "weekday", TripID: "60063977", DirectionID: "0"},
		{RouteID: "10", ServiceID: "weekday", TripID: "60063980", DirectionID: "0"},
	}
	stopTimes := []StopTime{
		{TripID: "60063977", StopID: "10003", StopSequence: 5, ArrivalTime: 10*time.Hour + 0*time.Minute},
		{TripID: "60063977", StopID: "10004", StopSequence: 6, ArrivalTime: 10*time.Hour + 3*time.Minute},
		{TripID: "60063980", StopID: "10003", StopSequence: 5, ArrivalTime: 10*time.Hour + 15*time.Minute},
	}
	serviceDate := time.Date(2022, 6, 15, 0, 0, 0, 0, time.UTC)
	archive := NewArchive(trips, stopTimes, nil, serviceDate)

	headway, ok := archive.ScheduledHeadway("10", "0", "10003", 10*time.Hour+15*time.Minute)
	if !ok {
		t.Fatal("expected a headway match")
	}
	if want := 900; headway != want {
		t.Errorf("ScheduledHeadway() = %d, want %d", headway, want)
	}

	scheduledTripID, ok := archive.ResolveScheduledTrip("10", "0", "10003", "actual-trip", 10*time.Hour+16*time.Minute)
	if !ok {
		t.Fatal("expected a scheduled trip match")
	}
	if scheduledTripID != "60063980" {
		t.Errorf("ResolveScheduledTrip() = %q, want %q", scheduledTripID, "60063980")
	}

	tt, ok := archive.ScheduledTT("10", "0", "10004", "60063977")
	if !ok {
		t.Fatal("expected a travel-time match")
	}
	if want := 180; tt != want {
		t.Errorf("ScheduledTT() = %d, want %d", tt, want)
	}
}

func TestArchiveNoMatchReturnsFalse(t *testing.T) {
	archive := NewArchive(nil, nil, nil, time.Now())
	if _, ok := archive.ScheduledHeadway("10", "0", "10003", time.Hour); ok {
		t.Error("expected no headway match against an empty archive")
	}
	if _, ok := archive.ScheduledTT("10", "0", "10003", "missing-trip"); ok {
		t.Error("expected no travel-time match for an unscheduled trip")
	}
}
