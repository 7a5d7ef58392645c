package management

import (
	"slices"
	"strings"

	"bda_portal_backend/internal/leads/transport"
)

// Dashboard tabs.
const (
	TabLeads            = "leads"
	TabUnifiedData      = "unified-data"
	TabQualifiedLeads   = "qualified-leads"
	TabClaimLeads       = "claim-leads"
	TabWhatsAppCampaign = "whatsapp-campaign"
	TabEmailCampaign    = "email-campaign"
	TabBDAAnalysis      = "bda-analysis"
	TabIncentiveConfig  = "incentive-config"
)

var tabOrder = []string{
	TabLeads, TabUnifiedData, TabQualifiedLeads, TabClaimLeads,
	TabWhatsAppCampaign, TabEmailCampaign, TabBDAAnalysis, TabIncentiveConfig,
}

var roleTabs = map[string][]string{
	"admin":     tabOrder,
	"bda":       {TabLeads, TabQualifiedLeads, TabClaimLeads},
	"marketing": {TabLeads, TabUnifiedData, TabWhatsAppCampaign, TabEmailCampaign},
}

// Permissions returns the dashboard tabs visible to the given roles, in display order.
func Permissions(roles []string) transport.PermissionsResponse {
	visible := map[string]bool{}
	for _, role := range roles {
		for _, tab := range roleTabs[strings.ToLower(role)] {
			visible[tab] = true
		}
	}
	tabs := make([]string, 0, len(visible))
	for _, tab := range tabOrder {
		if visible[tab] {
			tabs = append(tabs, tab)
		}
	}
	out := slices.Clone(roles)
	if out == nil {
		out = []string{}
	}
	return transport.PermissionsResponse{Roles: out, Tabs: tabs}
}
