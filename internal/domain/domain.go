package domain

import (
	"github.com/complyline/compliance-backend/internal/domain/compliance"
)

const (
	GatheredFromTrustCloud = compliance.GatheredFromTrustCloud
	GatheredFromEramba     = compliance.GatheredFromEramba
)

type Certification = compliance.Certification
type Clause = compliance.Clause
type Control = compliance.Control
type Policy = compliance.Policy
type FrameworkStandard = compliance.FrameworkStandard

type ClausePolicy = compliance.ClausePolicy
type ClauseControl = compliance.ClauseControl
type PolicyControl = compliance.PolicyControl

type CaptureDocument = compliance.CaptureDocument
