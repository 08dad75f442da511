package enums

import "testing"

func TestOrderStatusTransitions(t *testing.T) {
	allowed := map[[2]OrderStatus]bool{
		{OrderStatusPending, OrderStatusProcessing}: true,
		{OrderStatusPending, OrderStatusCancelled}:  true,
		{OrderStatusProcessing, OrderStatusShipped}: true,
		{OrderStatusProcessing, OrderStatusCancelled}: true,
		{OrderStatusShipped, OrderStatusDelivered}:  true,
	}
	for _, from := range validOrderStatuses {
		for _, to := range validOrderStatuses {
			want := allowed[[2]OrderStatus{from, to}]
			if got := from.CanTransitionTo(to); got != want {
				t.Fatalf("%s -> %s: expected %v got %v", from, to, want, got)
			}
		}
	}
}

func TestChequeStatusTransitions(t *testing.T) {
	if !ChequeStatusCleared.CanTransitionTo(ChequeStatusBounced) {
		t.Fatal("cleared cheques may bounce")
	}
	if ChequeStatusCleared.CanTransitionTo(ChequeStatusCancelled) {
		t.Fatal("cleared cheques cannot be cancelled")
	}
	if ChequeStatusBounced.CanTransitionTo(ChequeStatusCleared) {
		t.Fatal("bounced is terminal")
	}
	if ChequeStatusPending.CanTransitionTo(ChequeStatusPending) {
		t.Fatal("self transition should be rejected")
	}
}

func TestTripStatusTransitions(t *testing.T) {
	if !TripStatusPlanned.CanTransitionTo(TripStatusOnRoute) || !TripStatusOnRoute.CanTransitionTo(TripStatusDelivered) {
		t.Fatal("forward path must be allowed")
	}
	if TripStatusPlanned.CanTransitionTo(TripStatusDelivered) {
		t.Fatal("cannot skip on route")
	}
	if TripStatusDelivered.CanTransitionTo(TripStatusCancelled) {
		t.Fatal("delivered is terminal")
	}
	if TripStatusCancelled.IsActive() || !TripStatusOnRoute.IsActive() {
		t.Fatal("unexpected active flags")
	}
}

func TestParseRejectsUnknown(t *testing.T) {
	if _, err := ParseApprovalStatus("maybe"); err == nil {
		t.Fatal("expected error for unknown approval status")
	}
	if got, err := ParseTripStatus("On Route"); err != nil || got != TripStatusOnRoute {
		t.Fatalf("expected On Route, got %q err=%v", got, err)
	}
	if _, err := ParseNotificationType("carrier_pigeon"); err == nil {
		t.Fatal("expected error for unknown notification type")
	}
}

func TestNotificationDisplayFallsBackToSystem(t *testing.T) {
	if d := NotificationTypeChequeBounced.Display(); d.Color != "red" || d.Label != "Cheque Bounced" {
		t.Fatalf("unexpected display %+v", d)
	}
	if d := NotificationType("unknown").Display(); d != NotificationTypeSystem.Display() {
		t.Fatalf("expected system fallback, got %+v", d)
	}
}

func TestLedgerEntrySign(t *testing.T) {
	if LedgerEntryCredit.Sign() != -1 || LedgerEntryCharge.Sign() != 1 || LedgerEntryReversal.Sign() != 1 {
		t.Fatal("unexpected ledger signs")
	}
}

func TestMemberStatusCanLogin(t *testing.T) {
	if !MemberStatusActive.CanLogin() || MemberStatusSuspended.CanLogin() || MemberStatusInactive.CanLogin() {
		t.Fatal("only active members may log in")
	}
}
