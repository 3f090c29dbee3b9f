package temporal

import (
	"fmt"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"
)

const (
	ActivityPolicyLoadSubmission   = "load_submission"
	ActivityPolicyRenderDocument   = "render_document"
	ActivityPolicyMarkRenderFailed = "mark_render_failed"
	ActivityPolicyUploadDocument   = "upload_document"
	ActivityPolicySendEmail        = "send_email"
	ActivityPolicyNotifyChat       = "notify_chat"
	ActivityPolicyFinalizeDelivery = "finalize_delivery"
	ActivityPolicyCleanup          = "cleanup"
)

type activityPolicy struct {
	StartToCloseTimeout time.Duration
	RetryPolicy         temporal.RetryPolicy
}

var storePolicy = activityPolicy{
	StartToCloseTimeout: 30 * time.Second,
	RetryPolicy: temporal.RetryPolicy{
		InitialInterval:    1 * time.Second,
		BackoffCoefficient: 2,
		MaximumInterval:    10 * time.Second,
		MaximumAttempts:    3,
	},
}

// Delivery channels get a bounded number of in-run attempts; at-least-once
// delivery is acceptable on every channel, and storage uploads never reuse
// an object key.
var deliveryPolicy = activityPolicy{
	StartToCloseTimeout: 2 * time.Minute,
	RetryPolicy: temporal.RetryPolicy{
		InitialInterval:    2 * time.Second,
		BackoffCoefficient: 2,
		MaximumInterval:    20 * time.Second,
		MaximumAttempts:    3,
	},
}

var activityPolicies = map[string]activityPolicy{
	ActivityPolicyLoadSubmission:   storePolicy,
	ActivityPolicyRenderDocument:   storePolicy,
	ActivityPolicyMarkRenderFailed: storePolicy,
	ActivityPolicyUploadDocument:   deliveryPolicy,
	ActivityPolicySendEmail:        deliveryPolicy,
	ActivityPolicyNotifyChat:       deliveryPolicy,
	ActivityPolicyFinalizeDelivery: storePolicy,
	ActivityPolicyCleanup:          storePolicy,
}

func ActivityOptionsFor(policyName string) (workflow.ActivityOptions, error) {
	policy, ok := activityPolicies[policyName]
	if !ok {
		return workflow.ActivityOptions{}, fmt.Errorf("unknown activity policy: %s", policyName)
	}

	retry := policy.RetryPolicy
	return workflow.ActivityOptions{
		StartToCloseTimeout: policy.StartToCloseTimeout,
		RetryPolicy:         &retry,
	}, nil
}

func mustActivityContext(ctx workflow.Context, policyName string) workflow.Context {
	ao, err := ActivityOptionsFor(policyName)
	if err != nil {
		panic(err)
	}
	return workflow.WithActivityOptions(ctx, ao)
}
