package bootstrap

import (
	"context"

	"erp/portal/internal/backend"
	"erp/portal/internal/donor"
	"erp/portal/internal/gallery"
	"erp/portal/internal/helpdesk"
	"erp/portal/internal/homework"
	"erp/portal/internal/kitchen"
	"erp/portal/internal/model"
	"erp/portal/internal/transport"
)

type Dashboard struct {
	Role          model.Role           `json:"role"`
	Notifications []model.Notification `json:"notifications"`
	Unread        int                  `json:"unread"`
}

// Screens is the portal's screen registry.
func Screens() []Screen {
	return []Screen{
		{Name: "dashboard", Fetch: fetchDashboard},
		{Name: "gallery", Fetch: fetchGallery},
		{Name: "kitchen", Roles: []model.Role{model.RoleAdmin, model.RoleTeacher}, Fetch: fetchKitchen},
		{Name: "homework", Roles: []model.Role{model.RoleStudent}, Fetch: fetchHomework},
		{Name: "transport", Fetch: fetchTransport},
		{Name: "labs", Roles: []model.Role{model.RoleAdmin, model.RoleTeacher, model.RoleStudent}, Fetch: fetchLabs},
		{Name: "suggestions", Fetch: fetchSuggestions},
		{Name: "payments", Roles: []model.Role{model.RoleDonor}, Fetch: fetchPayments},
		{Name: "health", Roles: []model.Role{model.RoleAdmin, model.RoleTeacher, model.RoleStudent}, Fetch: fetchHealth},
		{Name: "chat", Fetch: fetchChat},
	}
}

func fetchDashboard(ctx context.Context, env Env) (interface{}, error) {
	notifications, err := env.Client.ListNotifications(ctx)
	if err != nil {
		return nil, err
	}
	return Dashboard{
		Role:          env.User.Role,
		Notifications: notifications,
		Unread:        backend.CountUnread(notifications),
	}, nil
}

func fetchGallery(ctx context.Context, env Env) (interface{}, error) {
	items, err := env.Client.ListGallery(ctx)
	if err != nil {
		return nil, err
	}
	return gallery.GroupByTitle(items), nil
}

func fetchKitchen(ctx context.Context, env Env) (interface{}, error) {
	return kitchen.Load(ctx, env.Client)
}

func fetchHomework(ctx context.Context, env Env) (interface{}, error) {
	classGroup := env.User.ClassGroup
	if override := env.Query.Get("class"); override != "" {
		classGroup = override
	}
	assignments, err := env.Client.ListStudentHomework(ctx, env.User.ID, classGroup)
	if err != nil {
		return nil, err
	}
	return homework.Filter(assignments, env.Query.Get("status"), env.Query.Get("q")), nil
}

func fetchTransport(ctx context.Context, env Env) (interface{}, error) {
	routes, err := env.Client.ListRoutes(ctx)
	if err != nil {
		return nil, err
	}
	return transport.Search(routes, env.Query.Get("q")), nil
}

func fetchLabs(ctx context.Context, env Env) (interface{}, error) {
	return env.Client.ListLabs(ctx)
}

func fetchSuggestions(ctx context.Context, env Env) (interface{}, error) {
	return helpdesk.NewTracker(env.Store).Mine(ctx, env.Client)
}

func fetchPayments(ctx context.Context, env Env) (interface{}, error) {
	payments, err := env.Client.PaymentHistory(ctx, env.User.ID)
	if err != nil {
		return nil, err
	}
	return donor.Summarize(payments), nil
}

// Staff may look up any student with ?student=<id>; students see their own.
func fetchHealth(ctx context.Context, env Env) (interface{}, error) {
	studentID := env.User.ID
	if env.User.Role != model.RoleStudent {
		if requested := env.Query.Get("student"); requested != "" {
			studentID = model.ID(requested)
		}
	}
	records, err := env.Client.ListHealthRecords(ctx, studentID)
	if err != nil {
		return nil, err
	}
	for i := range records {
		records[i].Height = model.OrNA(records[i].Height)
		records[i].Weight = model.OrNA(records[i].Weight)
		records[i].BloodGroup = model.OrNA(records[i].BloodGroup)
		records[i].Notes = model.OrNA(records[i].Notes)
	}
	return records, nil
}

func fetchChat(ctx context.Context, env Env) (interface{}, error) {
	return env.Client.ListChatRooms(ctx)
}
