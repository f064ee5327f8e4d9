package dto

// RouteDecisionResponse veredicto del guard para una vista. Decision es
// "loading", "allow" o "redirect"; target solo acompaña a redirect.
type RouteDecisionResponse struct {
	View      string `json:"view"`
	Decision  string `json:"decision"`
	Target    string `json:"target,omitempty"`
	Role      string `json:"role"`
	Readiness string `json:"readiness"`
}
