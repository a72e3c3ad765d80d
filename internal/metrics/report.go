package metrics

// Report is the fixed 16-field KPI result. Percentages live in [0,100],
// currency fields are >= 0, MembershipsRenewed is the one raw count.
// Constructed fresh on every aggregation pass, never mutated in place.
type Report struct {
	InstallRate            float64 `json:"installRate"`
	InstallRevenuePerJob   float64 `json:"installRevenuePerJob"`
	JettingRate            float64 `json:"jettingRate"`
	JettingRevenuePerJob   float64 `json:"jettingRevenuePerJob"`
	DescalingRate          float64 `json:"descalingRate"`
	DescalingRevenuePerJob float64 `json:"descalingRevenuePerJob"`

	ZeroRevenueRate    float64 `json:"zeroRevenueRate"`
	DiagnosticOnlyRate float64 `json:"diagnosticOnlyRate"`
	CallbackRate       float64 `json:"callbackRate"`
	ComplaintRate      float64 `json:"complaintRate"`

	MembershipConversionRate float64 `json:"membershipConversionRate"`
	MembershipsRenewed       int     `json:"membershipsRenewed"`

	JobEfficiency       float64 `json:"jobEfficiency"`
	LaborRevenuePerHour float64 `json:"laborRevenuePerHour"`
	TechPayRate         float64 `json:"techPayRate"`
	AverageTicket       float64 `json:"averageTicket"`
}

// Value returns a field by its JSON key, for scoring and rendering layers
// that iterate metrics by name. Unknown keys return 0.
func (r Report) Value(key string) float64 {
	switch key {
	case "installRate":
		return r.InstallRate
	case "installRevenuePerJob":
		return r.InstallRevenuePerJob
	case "jettingRate":
		return r.JettingRate
	case "jettingRevenuePerJob":
		return r.JettingRevenuePerJob
	case "descalingRate":
		return r.DescalingRate
	case "descalingRevenuePerJob":
		return r.DescalingRevenuePerJob
	case "zeroRevenueRate":
		return r.ZeroRevenueRate
	case "diagnosticOnlyRate":
		return r.DiagnosticOnlyRate
	case "callbackRate":
		return r.CallbackRate
	case "complaintRate":
		return r.ComplaintRate
	case "membershipConversionRate":
		return r.MembershipConversionRate
	case "membershipsRenewed":
		return float64(r.MembershipsRenewed)
	case "jobEfficiency":
		return r.JobEfficiency
	case "laborRevenuePerHour":
		return r.LaborRevenuePerHour
	case "techPayRate":
		return r.TechPayRate
	case "averageTicket":
		return r.AverageTicket
	default:
		return 0
	}
}

// MergeReports combines per-source reports: rate and currency fields average
// across the sources that produced data, the renewal count sums.
func MergeReports(parts []Report) Report {
	if len(parts) == 0 {
		return Report{}
	}
	if len(parts) == 1 {
		return parts[0]
	}

	var merged Report
	n := float64(len(parts))
	for _, p := range parts {
		merged.InstallRate += p.InstallRate
		merged.InstallRevenuePerJob += p.InstallRevenuePerJob
		merged.JettingRate += p.JettingRate
		merged.JettingRevenuePerJob += p.JettingRevenuePerJob
		merged.DescalingRate += p.DescalingRate
		merged.DescalingRevenuePerJob += p.DescalingRevenuePerJob
		merged.ZeroRevenueRate += p.ZeroRevenueRate
		merged.DiagnosticOnlyRate += p.DiagnosticOnlyRate
		merged.CallbackRate += p.CallbackRate
		merged.ComplaintRate += p.ComplaintRate
		merged.MembershipConversionRate += p.MembershipConversionRate
		merged.JobEfficiency += p.JobEfficiency
		merged.LaborRevenuePerHour += p.LaborRevenuePerHour
		merged.TechPayRate += p.TechPayRate
		merged.AverageTicket += p.AverageTicket
		merged.MembershipsRenewed += p.MembershipsRenewed
	}
	merged.InstallRate /= n
	merged.InstallRevenuePerJob /= n
	merged.JettingRate /= n
	merged.JettingRevenuePerJob /= n
	merged.DescalingRate /= n
	merged.DescalingRevenuePerJob /= n
	merged.ZeroRevenueRate /= n
	merged.DiagnosticOnlyRate /= n
	merged.CallbackRate /= n
	merged.ComplaintRate /= n
	merged.MembershipConversionRate /= n
	merged.JobEfficiency /= n
	merged.LaborRevenuePerHour /= n
	merged.TechPayRate /= n
	merged.AverageTicket /= n
	return merged
}
