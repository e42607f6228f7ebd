package mcp

import "github.com/mark3labs/mcp-go/mcp"

// Shared argument options for the report tools.
func reportArgs(extra ...mcp.ToolOption) []mcp.ToolOption {
	opts := []mcp.ToolOption{
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to an Apple Health export.xml or export.zip"),
		),
		mcp.WithString("from",
			mcp.Description("First local day to include (YYYY-MM-DD)"),
		),
		mcp.WithString("to",
			mcp.Description("Last local day to include (YYYY-MM-DD, inclusive)"),
		),
		mcp.WithArray("sources",
			mcp.Description("Source name tags, matched case-insensitively as substrings. Replaces the configured tags."),
			mcp.WithStringItems(),
		),
		mcp.WithString("format",
			mcp.Description("Output format: json (default), text, csv, or markdown"),
			mcp.Enum("json", "text", "csv", "markdown"),
		),
	}
	return append(opts, extra...)
}

var gapArg = mcp.WithNumber("gap_minutes",
	mcp.Description("Largest gap in minutes between consecutive food events of one meal (default from config, usually 30)"),
	mcp.Min(1),
	mcp.Max(1440),
)

var foodsToolDef = mcp.NewTool("report_foods",
	append([]mcp.ToolOption{
		mcp.WithDescription("List reconstructed food events. Nutrient records sharing an identity are merged into one event with summed nutrients."),
		mcp.WithReadOnlyHintAnnotation(true),
	}, reportArgs()...)...,
)

var mealsToolDef = mcp.NewTool("report_meals",
	append([]mcp.ToolOption{
		mcp.WithDescription("Group food events into meals by time gap and report per-meal nutrient totals."),
		mcp.WithReadOnlyHintAnnotation(true),
	}, reportArgs(gapArg)...)...,
)

var weeklyFoodsToolDef = mcp.NewTool("report_weekly_foods",
	append([]mcp.ToolOption{
		mcp.WithDescription("Count food events and their energy per ISO week and food."),
		mcp.WithReadOnlyHintAnnotation(true),
	}, reportArgs()...)...,
)

var weeklySlotsToolDef = mcp.NewTool("report_weekly_slots",
	append([]mcp.ToolOption{
		mcp.WithDescription("Count foods per ISO week and meal slot (breakfast, lunch, ...). Foods are ordered by count, most frequent first."),
		mcp.WithReadOnlyHintAnnotation(true),
	}, reportArgs()...)...,
)

var snapshotWriteToolDef = mcp.NewTool("snapshot_write",
	mcp.WithDescription("Reconstruct food events and meals from an export and store them as a new run in a SQLite snapshot file."),
	mcp.WithString("path",
		mcp.Required(),
		mcp.Description("Path to an Apple Health export.xml or export.zip"),
	),
	mcp.WithString("from",
		mcp.Description("First local day to include (YYYY-MM-DD)"),
	),
	mcp.WithString("to",
		mcp.Description("Last local day to include (YYYY-MM-DD, inclusive)"),
	),
	mcp.WithArray("sources",
		mcp.Description("Source name tags. Replaces the configured tags."),
		mcp.WithStringItems(),
	),
	gapArg,
	mcp.WithString("db_path",
		mcp.Description("Snapshot database file (default: ~/.mealtrace/snapshots.db)"),
	),
)

var snapshotRunsToolDef = mcp.NewTool("snapshot_runs",
	mcp.WithDescription("List stored snapshot runs, newest first."),
	mcp.WithReadOnlyHintAnnotation(true),
	mcp.WithString("db_path",
		mcp.Description("Snapshot database file (default: ~/.mealtrace/snapshots.db)"),
	),
	mcp.WithNumber("limit",
		mcp.Description("Maximum runs to return (default 20, max 200)"),
	),
)
