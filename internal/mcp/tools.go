package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

var checkToolDef = mcp.NewTool("vibe_check",
	mcp.WithDescription("Submit a mood for analysis. Guests get 3 free checks per device; sign in for unlimited."),
	mcp.WithString("mood_text",
		mcp.Required(),
		mcp.Description("How you're feeling, free text, up to 500 characters"),
	),
)

var todayToolDef = mcp.NewTool("vibe_today",
	mcp.WithDescription("Get today's vibe check, if one was made."),
)

var historyToolDef = mcp.NewTool("vibe_history",
	mcp.WithDescription("List past vibe checks, newest first. Guests read the local cache (max 10 entries)."),
	mcp.WithNumber("limit",
		mcp.Description("Maximum items to return (default 20, max 100)"),
	),
	mcp.WithNumber("offset",
		mcp.Description("Items to skip"),
	),
)

var removeToolDef = mcp.NewTool("vibe_remove",
	mcp.WithDescription("Remove an entry from the local history cache by id."),
	mcp.WithString("id",
		mcp.Required(),
		mcp.Description("Entry id"),
	),
)

var statsToolDef = mcp.NewTool("vibe_stats",
	mcp.WithDescription("Get streaks, totals, average score, and top aesthetic."),
)

var trendToolDef = mcp.NewTool("vibe_trend",
	mcp.WithDescription("Get the vibe-score series over time, oldest first."),
)

var statusToolDef = mcp.NewTool("vibe_status",
	mcp.WithDescription("Get session mode, device id, guest quota, and cache state."),
)

var loginToolDef = mcp.NewTool("vibe_login",
	mcp.WithDescription("Sign in with email and password."),
	mcp.WithString("email",
		mcp.Required(),
		mcp.Description("Account email"),
	),
	mcp.WithString("password",
		mcp.Required(),
		mcp.Description("Account password"),
	),
)

var registerToolDef = mcp.NewTool("vibe_register",
	mcp.WithDescription("Create an account for unlimited vibe checks."),
	mcp.WithString("email",
		mcp.Required(),
		mcp.Description("Account email"),
	),
	mcp.WithString("password",
		mcp.Required(),
		mcp.Description("Account password, at least 8 characters"),
	),
)

var guestToolDef = mcp.NewTool("vibe_guest",
	mcp.WithDescription("Continue as guest: 3 free vibe checks tied to this device."),
)

var logoutToolDef = mcp.NewTool("vibe_logout",
	mcp.WithDescription("Sign out and clear the local session."),
)
