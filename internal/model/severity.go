package model

import "github.com/nao1215/imgforensics/internal/forensics"

// scoreAdvice is an advisory emitted when one algorithm's score exceeds a threshold.
type scoreAdvice struct {
	algorithm forensics.AlgorithmID
	threshold float64
	message   string
}

// adviceTable lists per-algorithm advisories in output order.
var adviceTable = []scoreAdvice{
	{
		algorithm: forensics.AlgorithmELA,
		threshold: 0.5,
		message:   "High ELA score detected - check for JPEG recompression artifacts",
	},
	{
		algorithm: forensics.AlgorithmMetadata,
		threshold: 0.3,
		message:   "Metadata inconsistencies found - verify image source and editing history",
	},
	{
		algorithm: forensics.AlgorithmNoise,
		threshold: 0.4,
		message:   "Irregular noise patterns detected - possible splicing or copy-move manipulation",
	},
	{
		algorithm: forensics.AlgorithmJPEGQuality,
		threshold: 0.4,
		message:   "JPEG quality inconsistencies suggest multiple compression cycles",
	},
}

// RiskAdvice returns the closing advisory for a risk tier.
func RiskAdvice(level forensics.RiskLevel) string {
	switch level {
	case forensics.RiskHigh:
		return "HIGH RISK: Multiple manipulation indicators detected - thorough manual review recommended"
	case forensics.RiskMedium:
		return "MEDIUM RISK: Some suspicious indicators - additional verification suggested"
	default:
		return "LOW RISK: Image appears to be authentic with minimal editing traces"
	}
}

// Recommendations turns a verdict into advisory strings: one per algorithm
// whose score exceeds its threshold, followed by exactly one risk-tier line.
// Thresholds are strict, so a score equal to the threshold adds nothing.
func Recommendations(v forensics.Verdict) []string {
	recs := make([]string, 0, len(adviceTable)+1)
	for _, a := range adviceTable {
		if v.IndividualScores[a.algorithm] > a.threshold {
			recs = append(recs, a.message)
		}
	}
	return append(recs, RiskAdvice(v.RiskLevel))
}
