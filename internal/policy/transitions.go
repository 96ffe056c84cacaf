package policy

import "github.com/mmynk/claimflow/internal/models"

// Action is a requested claim transition.
type Action string

const (
	ActionSubmit     Action = "submit"
	ActionAssign     Action = "assign"
	ActionVerify     Action = "verify"
	ActionAutoVerify Action = "auto_verify"
	ActionApprove    Action = "approve"
	ActionReject     Action = "reject"
)

// Capability is what an actor is to a particular claim.
type Capability uint8

const (
	CapOwner Capability = 1 << iota
	CapReviewer
	CapEngineer
	CapAdmin
)

// capabilityPriority is the order rules are tried in when an actor holds
// several capabilities at once.
var capabilityPriority = []Capability{CapAdmin, CapReviewer, CapEngineer, CapOwner}

// Capabilities is a set of Capability flags.
type Capabilities uint8

// Has reports whether c is in the set.
func (s Capabilities) Has(c Capability) bool {
	return s&Capabilities(c) != 0
}

// With returns the set with c added.
func (s Capabilities) With(c Capability) Capabilities {
	return s | Capabilities(c)
}

// Effect is a side effect attached to a transition. The controller executes
// effects in the listed order after the conditional status write.
type Effect int

const (
	// EffectRoute resolves the reviewer from the owner's profile.
	EffectRoute Effect = iota
	// EffectSetReviewer writes the reviewer chosen by an admin.
	EffectSetReviewer
	// EffectAutoVerify runs the auto_verify rule before this one.
	EffectAutoVerify
	// EffectLimitGate rejects amounts above the engineer approval limit.
	EffectLimitGate
	// EffectDebit debits the owner's balance by the claim amount.
	EffectDebit
	// EffectNotifyReviewer alerts the reviewer, or every admin when there is none.
	EffectNotifyReviewer
	// EffectNotifyOwner alerts the claim owner.
	EffectNotifyOwner
	// EffectEscalate alerts every admin when RequiresAdmin holds.
	EffectEscalate
)

// Rule maps (From, Action, Capability) to (To, Effects).
type Rule struct {
	From       models.ClaimStatus
	Action     Action
	Capability Capability
	To         models.ClaimStatus
	Effects    []Effect
}

// HasEffect reports whether the rule carries e.
func (r Rule) HasEffect(e Effect) bool {
	for _, have := range r.Effects {
		if have == e {
			return true
		}
	}
	return false
}

var (
	submitted = models.StatusSubmitted
	verified  = models.StatusVerified
	approved  = models.StatusApproved
	rejected  = models.StatusRejected
)

// Transitions is the claim state machine. Nothing leaves approved or rejected.
var Transitions = []Rule{
	{submitted, ActionSubmit, CapAdmin, submitted, []Effect{EffectRoute, EffectNotifyReviewer}},
	{submitted, ActionSubmit, CapOwner, submitted, []Effect{EffectRoute, EffectNotifyReviewer}},

	{submitted, ActionAssign, CapAdmin, submitted, []Effect{EffectSetReviewer, EffectNotifyReviewer}},
	{verified, ActionAssign, CapAdmin, submitted, []Effect{EffectSetReviewer, EffectNotifyReviewer}},

	{submitted, ActionVerify, CapReviewer, verified, []Effect{EffectNotifyOwner, EffectEscalate}},
	{submitted, ActionAutoVerify, CapAdmin, verified, []Effect{EffectNotifyOwner}},

	{submitted, ActionApprove, CapAdmin, approved, []Effect{EffectAutoVerify, EffectDebit, EffectNotifyOwner}},
	{verified, ActionApprove, CapAdmin, approved, []Effect{EffectDebit, EffectNotifyOwner}},
	{verified, ActionApprove, CapReviewer, approved, []Effect{EffectLimitGate, EffectDebit, EffectNotifyOwner}},
	{submitted, ActionApprove, CapEngineer, approved, []Effect{EffectLimitGate, EffectDebit, EffectNotifyOwner}},

	{submitted, ActionReject, CapAdmin, rejected, []Effect{EffectNotifyOwner}},
	{verified, ActionReject, CapAdmin, rejected, []Effect{EffectNotifyOwner}},
	{submitted, ActionReject, CapReviewer, rejected, []Effect{EffectNotifyOwner}},
	{verified, ActionReject, CapReviewer, rejected, []Effect{EffectNotifyOwner}},
}

// Lookup returns the rule for an action on a claim in status from, trying
// the actor's capabilities from most to least privileged.
func Lookup(from models.ClaimStatus, action Action, caps Capabilities) (Rule, bool) {
	for _, c := range capabilityPriority {
		if !caps.Has(c) {
			continue
		}
		for _, r := range Transitions {
			if r.From == from && r.Action == action && r.Capability == c {
				return r, true
			}
		}
	}
	return Rule{}, false
}

// Sources lists every status from which action is legal for any capability.
func Sources(action Action) []models.ClaimStatus {
	seen := map[models.ClaimStatus]bool{}
	var out []models.ClaimStatus
	for _, r := range Transitions {
		if r.Action == action && !seen[r.From] {
			seen[r.From] = true
			out = append(out, r.From)
		}
	}
	return out
}
