package dispense

import (
	"context"
	"errors"
	"testing"
	"time"
)

type startCall struct {
	code      string
	machineID string
	sessionID string
}

type pickupCall struct {
	prescriptionNo string
	drugCode       string
	sessionID      string
}

// fakeRemote records calls and answers from function fields.
type fakeRemote struct {
	fetchFn func(ctx context.Context) (*Prescription, error)
	startFn func(ctx context.Context, code, machineID, sessionID string) (*Prescription, error)

	starts  []startCall
	pickups []pickupCall
	resets  int

	pickupErr error
	resetErr  error
}

func (f *fakeRemote) FetchCurrentOrder(ctx context.Context) (*Prescription, error) {
	if f.fetchFn == nil {
		return nil, ErrNoActiveOrder
	}
	return f.fetchFn(ctx)
}

func (f *fakeRemote) StartDispensing(ctx context.Context, code, machineID, sessionID string) (*Prescription, error) {
	f.starts = append(f.starts, startCall{code, machineID, sessionID})
	if f.startFn == nil {
		return &Prescription{PrescriptionNo: code, Items: []LineItem{{ID: "i1", Status: StatusReady}}}, nil
	}
	return f.startFn(ctx, code, machineID, sessionID)
}

func (f *fakeRemote) PickupItem(ctx context.Context, prescriptionNo, drugCode, sessionID string) error {
	f.pickups = append(f.pickups, pickupCall{prescriptionNo, drugCode, sessionID})
	return f.pickupErr
}

func (f *fakeRemote) ResetOrder(ctx context.Context, machineID, sessionID string) error {
	f.resets++
	return f.resetErr
}

type fixedSessionID string

func (s fixedSessionID) SessionID() string { return string(s) }

// newTestService disables the debounce cool-down so each scan in a test is
// its own human action.
func newTestService(remote RemoteSync, machineID string) *service {
	svc := New(remote, fixedSessionID("sock-1"), Config{
		MachineID:      machineID,
		DebounceWindow: time.Millisecond,
	}).(*service)

	tick := time.Unix(0, 0)
	svc.guard.now = func() time.Time {
		tick = tick.Add(time.Hour)
		return tick
	}
	return svc
}

func TestHandleScan_StartsDispensingWhenEmpty(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote, "machine-7")

	if err := svc.HandleScan(context.Background(), "RX-100"); err != nil {
		t.Fatalf("HandleScan failed: %v", err)
	}

	if len(remote.starts) != 1 {
		t.Fatalf("got %d StartDispensing calls, want 1", len(remote.starts))
	}
	call := remote.starts[0]
	if call.code != "RX-100" || call.machineID != "machine-7" || call.sessionID != "sock-1" {
		t.Errorf("unexpected start call: %+v", call)
	}

	if _, ok := svc.Snapshot(); !ok {
		t.Error("session should be active after a successful start")
	}
}

func TestHandleScan_StartSequencesItems(t *testing.T) {
	remote := &fakeRemote{
		startFn: func(ctx context.Context, code, machineID, sessionID string) (*Prescription, error) {
			return &Prescription{Items: []LineItem{
				{ID: "a", Status: StatusReady},
				{ID: "b", Status: StatusPickup},
			}}, nil
		},
	}
	svc := newTestService(remote, "machine-7")

	if err := svc.HandleScan(context.Background(), "RX-100"); err != nil {
		t.Fatalf("HandleScan failed: %v", err)
	}

	p, _ := svc.Snapshot()
	if p.Items[0].ID != "b" {
		t.Errorf("items not sequenced on start: first item %q, want b", p.Items[0].ID)
	}
}

func TestHandleScan_PickupWhenActive(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote, "machine-7")

	if err := svc.HandleScan(context.Background(), "RX-100"); err != nil {
		t.Fatalf("start scan failed: %v", err)
	}
	if err := svc.HandleScan(context.Background(), "RX-100|D-55"); err != nil {
		t.Fatalf("pickup scan failed: %v", err)
	}

	if len(remote.pickups) != 1 {
		t.Fatalf("got %d PickupItem calls, want 1", len(remote.pickups))
	}
	call := remote.pickups[0]
	if call.prescriptionNo != "RX-100" || call.drugCode != "D-55" || call.sessionID != "sock-1" {
		t.Errorf("unexpected pickup call: %+v", call)
	}
	if len(remote.starts) != 1 {
		t.Errorf("active session must never route a scan to StartDispensing, got %d starts", len(remote.starts))
	}
}

func TestHandleScan_PickupSplitsOnFirstSeparatorOnly(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		wantNo   string
		wantDrug string
	}{
		{"plain pair", "RX-1|D-2", "RX-1", "D-2"},
		{"extra separator stays in drug code", "RX-1|D-2|tail", "RX-1", "D-2|tail"},
		{"no separator yields empty drug code", "RX-1", "RX-1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			remote := &fakeRemote{}
			svc := newTestService(remote, "machine-7")
			if err := svc.HandleScan(context.Background(), "RX-1"); err != nil {
				t.Fatalf("start scan failed: %v", err)
			}

			if err := svc.HandleScan(context.Background(), tt.code); err != nil {
				t.Fatalf("pickup scan failed: %v", err)
			}

			call := remote.pickups[0]
			if call.prescriptionNo != tt.wantNo || call.drugCode != tt.wantDrug {
				t.Errorf("got (%q, %q), want (%q, %q)", call.prescriptionNo, call.drugCode, tt.wantNo, tt.wantDrug)
			}
		})
	}
}

func TestHandleScan_PickupLeavesLocalStateUntouched(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote, "machine-7")

	svc.HandleScan(context.Background(), "RX-1")
	before, _ := svc.Snapshot()

	svc.HandleScan(context.Background(), "RX-1|D-2")
	after, _ := svc.Snapshot()

	if len(before.Items) != len(after.Items) || before.Items[0].Status != after.Items[0].Status {
		t.Error("pickup mutated local session state; only a refresh may do that")
	}
}

func TestHandleScan_Debounced(t *testing.T) {
	remote := &fakeRemote{}
	svc := New(remote, fixedSessionID("sock-1"), Config{
		MachineID:      "machine-7",
		DebounceWindow: time.Hour,
	})

	if err := svc.HandleScan(context.Background(), "RX-1"); err != nil {
		t.Fatalf("first scan failed: %v", err)
	}

	err := svc.HandleScan(context.Background(), "RX-1")
	if !errors.Is(err, ErrDebounced) {
		t.Fatalf("got %v, want ErrDebounced", err)
	}
	if len(remote.starts) != 1 {
		t.Errorf("debounced scan reached the backend: %d starts", len(remote.starts))
	}
}

func TestHandleScan_NoMachine(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote, "")

	err := svc.HandleScan(context.Background(), "RX-1")
	if !errors.Is(err, ErrNoMachine) {
		t.Fatalf("got %v, want ErrNoMachine", err)
	}
	if len(remote.starts) != 0 {
		t.Error("scan without a machine must not reach the backend")
	}
}

func TestRefresh_FiltersTerminalAndSequences(t *testing.T) {
	remote := &fakeRemote{
		fetchFn: func(ctx context.Context) (*Prescription, error) {
			return &Prescription{Items: []LineItem{
				{ID: "done", Status: StatusComplete},
				{ID: "r", Status: StatusReady},
				{ID: "p", Status: StatusPickup},
			}}, nil
		},
	}
	svc := newTestService(remote, "machine-7")

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	p, ok := svc.Snapshot()
	if !ok {
		t.Fatal("session should be active after refresh with active items")
	}
	if len(p.Items) != 2 {
		t.Fatalf("got %d items, want 2 (complete filtered)", len(p.Items))
	}
	if p.Items[0].ID != "p" || p.Items[1].ID != "r" {
		t.Errorf("items not sequenced: got %q, %q", p.Items[0].ID, p.Items[1].ID)
	}
}

func TestRefresh_AllTerminalEmptiesSession(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote, "machine-7")
	svc.HandleScan(context.Background(), "RX-1")

	remote.fetchFn = func(ctx context.Context) (*Prescription, error) {
		return &Prescription{Items: []LineItem{{ID: "a", Status: StatusComplete}}}, nil
	}

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if _, ok := svc.Snapshot(); ok {
		t.Error("session should be empty when every item is terminal")
	}
}

func TestRefresh_NoActiveOrderKeepsState(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote, "machine-7")
	svc.HandleScan(context.Background(), "RX-1")

	remote.fetchFn = func(ctx context.Context) (*Prescription, error) {
		return nil, ErrNoActiveOrder
	}

	err := svc.Refresh(context.Background())
	if !errors.Is(err, ErrNoActiveOrder) {
		t.Fatalf("got %v, want wrapped ErrNoActiveOrder", err)
	}
	if _, ok := svc.Snapshot(); !ok {
		t.Error("a failed fetch must not clobber the current session")
	}
}

func TestRefresh_Idempotent(t *testing.T) {
	remote := &fakeRemote{
		fetchFn: func(ctx context.Context) (*Prescription, error) {
			return &Prescription{Items: []LineItem{
				{ID: "a", Status: StatusPickup},
				{ID: "b", Status: StatusReady},
			}}, nil
		},
	}
	svc := newTestService(remote, "machine-7")

	svc.Refresh(context.Background())
	first, _ := svc.Snapshot()
	svc.Refresh(context.Background())
	second, _ := svc.Snapshot()

	if len(first.Items) != len(second.Items) {
		t.Fatal("repeated refresh with identical backend state changed the item count")
	}
	for i := range first.Items {
		if first.Items[i].ID != second.Items[i].ID {
			t.Errorf("position %d changed across identical refreshes", i)
		}
	}
}

func TestRefresh_StaleResponseDiscarded(t *testing.T) {
	svc := newTestService(nil, "machine-7")

	remote := &fakeRemote{}
	calls := 0
	remote.fetchFn = func(ctx context.Context) (*Prescription, error) {
		calls++
		if calls == 1 {
			// A newer refresh finishes while this one is still in flight.
			if err := svc.Refresh(ctx); err != nil {
				t.Fatalf("nested refresh failed: %v", err)
			}
			return &Prescription{PrescriptionNo: "stale", Items: []LineItem{{ID: "old", Status: StatusReady}}}, nil
		}
		return &Prescription{PrescriptionNo: "fresh", Items: []LineItem{{ID: "new", Status: StatusReady}}}, nil
	}
	svc.remote = remote

	if err := svc.Refresh(context.Background()); err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}

	p, ok := svc.Snapshot()
	if !ok {
		t.Fatal("session should be active")
	}
	if p.PrescriptionNo != "fresh" {
		t.Errorf("stale in-flight response overwrote a newer one: got %q", p.PrescriptionNo)
	}
}

func TestReset(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote, "machine-7")
	svc.HandleScan(context.Background(), "RX-1")

	if err := svc.Reset(context.Background()); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if remote.resets != 1 {
		t.Errorf("got %d ResetOrder calls, want 1", remote.resets)
	}
	if _, ok := svc.Snapshot(); ok {
		t.Error("session should be empty after reset")
	}
}

func TestReset_BackendFailureKeepsState(t *testing.T) {
	remote := &fakeRemote{resetErr: errors.New("backend down")}
	svc := newTestService(remote, "machine-7")
	svc.HandleScan(context.Background(), "RX-1")

	if err := svc.Reset(context.Background()); err == nil {
		t.Fatal("expected reset error")
	}
	if _, ok := svc.Snapshot(); !ok {
		t.Error("failed reset must not clear the local session")
	}
}

func TestReset_NoMachine(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote, "")

	if err := svc.Reset(context.Background()); !errors.Is(err, ErrNoMachine) {
		t.Fatalf("got %v, want ErrNoMachine", err)
	}
	if remote.resets != 0 {
		t.Error("reset without a machine must not reach the backend")
	}
}

func TestSnapshot_ReturnsCopy(t *testing.T) {
	remote := &fakeRemote{}
	svc := newTestService(remote, "machine-7")
	svc.HandleScan(context.Background(), "RX-1")

	p, _ := svc.Snapshot()
	p.Items[0].Status = StatusError

	again, _ := svc.Snapshot()
	if again.Items[0].Status == StatusError {
		t.Error("Snapshot exposed the session's backing slice")
	}
}
