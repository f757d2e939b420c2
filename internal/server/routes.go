package server

func (s *Server) registerSuperadminRoutes() {
	admin := s.engine.Group("/superadmin", s.SuperadminRequired())

	admin.GET("/tenants-list", s.TenantsList)
	admin.GET("/plans-list", s.PlanRefs)
	admin.GET("/dashboard", s.DashboardOverview)
	admin.GET("/audit-logs", s.ListAuditLogs)

	admin.POST("/tenants", s.CreateTenant)
	admin.GET("/tenants", s.ListTenants)
	admin.GET("/tenants/:id", s.GetTenant)
	admin.PATCH("/tenants/:id", s.UpdateTenant)
	admin.POST("/tenants/:id/suspend", s.SuspendTenant)
	admin.POST("/tenants/:id/reactivate", s.ReactivateTenant)
	admin.POST("/tenants/:id/archive", s.ArchiveTenant)
	admin.POST("/tenants/:id/billing-status", s.SetTenantBillingStatus)
	admin.POST("/tenants/:id/extend-trial", s.ExtendTenantTrial)
	admin.POST("/tenants/:id/plan", s.AssignTenantPlan)

	admin.GET("/tenants/:id/addons", s.ListTenantAddons)
	admin.POST("/tenants/:id/addons/:addonId", s.AttachAddon)
	admin.POST("/tenants/:id/addons/:addonId/preview", s.PreviewAddonQuantity)
	admin.POST("/tenants/:id/addons/:addonId/apply", s.ApplyAddonQuantity)

	admin.POST("/tenants/:id/stripe/customer", s.EnsureStripeCustomer)
	admin.POST("/tenants/:id/stripe/invoices", s.CreateStripeInvoice)
	admin.GET("/tenants/:id/stripe/invoices", s.ListStripeInvoices)

	admin.POST("/associations", s.CreateAssociation)
	admin.GET("/associations", s.ListAssociations)
	admin.GET("/associations/:id", s.GetAssociation)
	admin.PATCH("/associations/:id", s.UpdateAssociation)
	admin.POST("/associations/:id/deactivate", s.DeactivateAssociation)

	admin.POST("/plans", s.CreatePlan)
	admin.GET("/plans", s.ListPlans)
	admin.GET("/plans/:id", s.GetPlan)
	admin.PATCH("/plans/:id", s.UpdatePlan)
	admin.POST("/plans/:id/archive", s.ArchivePlan)

	admin.POST("/addons", s.CreateAddon)
	admin.GET("/addons", s.ListAddons)
	admin.GET("/addons/:id", s.GetAddon)
	admin.PATCH("/addons/:id", s.UpdateAddon)
	admin.POST("/addons/:id/archive", s.ArchiveAddon)

	admin.POST("/mandates", s.CreateMandate)
	admin.GET("/mandates", s.ListMandates)
	admin.GET("/mandates/:id", s.GetMandate)
	admin.POST("/mandates/:id/issue", s.IssueMandate)
	admin.POST("/mandates/:id/settle", s.SettleMandate)
	admin.POST("/mandates/:id/cancel", s.CancelMandate)
	admin.GET("/mandates/:id/pdf", s.MandatePDF)
}

func (s *Server) registerPortalRoutes() {
	portal := s.engine.Group("/portal/:slug", s.PortalTokenRequired())
	portal.GET("/billing", s.PortalBillingSummary)
}
