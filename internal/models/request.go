package models

// AnalysisRequest is the JSON body of POST /v1/analyses/:name.
// Values holds form fields by name; strings, numbers and booleans are
// accepted (numbers may also be given as "inf" or "-inf").
type AnalysisRequest struct {
	X      []float64              `json:"x"`
	Y      []float64              `json:"y"`
	Values map[string]interface{} `json:"values"`
}

// RegressionRequest is the JSON body of POST /v1/regression: the series
// plus flat cosinor form fields (h, b, v, p, max_nfev, specify_bounds,
// h_lower, h_upper, ...).
type RegressionRequest map[string]interface{}
