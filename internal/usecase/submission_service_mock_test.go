package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"

	"github.com/riskibarqy/questrank/internal/domain/submission"
	"github.com/riskibarqy/questrank/internal/infrastructure/repository/memory"
)

type mockVerifier struct {
	mock.Mock
}

func newMockVerifier(t *testing.T) *mockVerifier {
	m := &mockVerifier{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *mockVerifier) Verify(ctx context.Context, req submission.VerificationRequest) (submission.VerificationResult, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(submission.VerificationResult), args.Error(1)
}

func TestSubmissionService_Submit_ForwardsSnapshotToVerifier(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), "trace_id", "trace-789")
	store := memory.NewStore()
	seedAccount(t, store, "alice", "", testNow, 0, 0)

	verifier := newMockVerifier(t)
	verifier.
		On("Verify", mock.MatchedBy(func(v context.Context) bool { return v.Value("trace_id") == "trace-789" }),
			mock.MatchedBy(func(req submission.VerificationRequest) bool {
				return req.SubmissionID == "sub-1" &&
					req.POIID == "poi-eiffel" &&
					req.ReferencePhotoURL == "https://cdn.example.com/ref/eiffel.jpg" &&
					req.VerificationRadius == 50
			})).
		Return(submission.VerificationResult{Passed: true, Score: 100}, nil).
		Once()

	service := newSubmissionServiceForTest(store, verifier)
	result, err := service.Submit(ctx, questInput("alice"))
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if result.Submission.Status != submission.StatusApproved {
		t.Fatalf("unexpected status %q", result.Submission.Status)
	}
	if result.Submission.VerificationScore == nil || *result.Submission.VerificationScore != 100 {
		t.Fatalf("expected the verifier score stored, got %v", result.Submission.VerificationScore)
	}
}
