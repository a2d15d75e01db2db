package txn

import (
	"context"
	"errors"
	"testing"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsNotSupported(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"unrelated", errors.New("duplicate key on registrations"), false},
		{"code 20 standalone", mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member or mongos"}, true},
		{"code 51", mongo.CommandError{Code: 51, Message: "Illegal operation"}, true},
		{"code 263", mongo.CommandError{Code: 263, Message: "Cannot run in a multi-document transaction"}, true},
		{"other code", mongo.CommandError{Code: 11000, Message: "E11000 duplicate key"}, false},
		{"wrapped command error", errors.Join(errors.New("complete prompt set"), mongo.CommandError{Code: 20}), true},
		{"transaction on replica set", errors.New("transaction requires a replica set member"), true},
		{"session not supported", errors.New("sessions are not supported by this deployment"), true},
		{"transaction alone", errors.New("transaction aborted"), false},
		{"transaction and session", errors.New("cannot start transaction in current session state"), true},
		{"illegal operation", errors.New("Illegal Operation inside transaction"), true},
		{"upper case", errors.New("TRANSACTION FAILED ON REPLICA SET"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsNotSupported(tt.err); got != tt.want {
				t.Errorf("IsNotSupported(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestRunPlain_WarnsAndRunsOnce(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	cause := mongo.CommandError{Code: 20, Message: "Transaction numbers are only allowed on a replica set member"}

	calls := 0
	err := runPlain(context.Background(), zap.New(core), func(ctx context.Context) error {
		calls++
		return nil
	}, cause)
	if err != nil {
		t.Fatalf("runPlain: %v", err)
	}
	if calls != 1 {
		t.Errorf("fn ran %d times, want 1", calls)
	}
	if logs.Len() != 1 {
		t.Fatalf("warnings = %d, want 1", logs.Len())
	}
	entry := logs.All()[0]
	if got, ok := entry.ContextMap()["error"]; !ok || got != cause.Error() {
		t.Errorf("logged error = %v, want %q", got, cause.Error())
	}
}

func TestRunPlain_ReturnsFnError(t *testing.T) {
	want := errors.New("badge insert failed")
	err := runPlain(context.Background(), nil, func(ctx context.Context) error {
		return want
	}, errors.New("session not supported"))
	if !errors.Is(err, want) {
		t.Errorf("runPlain error = %v, want %v", err, want)
	}
}
