package model

// AppConfig holds application-wide preferences and default layout settings.
type AppConfig struct {
	// Default layout settings applied to new jobs
	DefaultPaperWidth       float64          `json:"default_paper_width" toml:"default_paper_width"`
	DefaultPaperHeight      float64          `json:"default_paper_height" toml:"default_paper_height"`
	DefaultMargins          Margins          `json:"default_margins" toml:"default_margins"`
	DefaultLayoutWidth      float64          `json:"default_layout_width" toml:"default_layout_width"`
	DefaultRotationNumber   int              `json:"default_rotation_number" toml:"default_rotation_number"`
	DefaultGroupingStrategy GroupingStrategy `json:"default_grouping_strategy" toml:"default_grouping_strategy"`
	DefaultNestingTime      int              `json:"default_nesting_time" toml:"default_nesting_time"`
	DefaultEfficiency       float64          `json:"default_efficiency" toml:"default_efficiency"`
	DefaultFollowGrainline  bool             `json:"default_follow_grainline" toml:"default_follow_grainline"`

	// Application preferences
	RecentJobs []string `json:"recent_jobs" toml:"recent_jobs"`
	Verbose    bool     `json:"verbose" toml:"verbose"`
}

// DefaultAppConfig returns an AppConfig populated with sensible defaults
// matching the values from DefaultLayoutSettings().
func DefaultAppConfig() AppConfig {
	defaults := DefaultLayoutSettings()
	return AppConfig{
		DefaultPaperWidth:       defaults.PaperWidth,
		DefaultPaperHeight:      defaults.PaperHeight,
		DefaultMargins:          defaults.Margins,
		DefaultLayoutWidth:      defaults.LayoutWidth,
		DefaultRotationNumber:   defaults.RotationNumber,
		DefaultGroupingStrategy: defaults.GroupingStrategy,
		DefaultNestingTime:      defaults.NestingTime,
		DefaultEfficiency:       defaults.EfficiencyCoefficient,
		DefaultFollowGrainline:  defaults.FollowGrainline,
		RecentJobs:              []string{},
	}
}

// ApplyToSettings copies the default values from AppConfig into a LayoutSettings struct.
// This is used when creating a new job so it inherits the user's saved defaults.
func (c AppConfig) ApplyToSettings(s *LayoutSettings) {
	s.PaperWidth = c.DefaultPaperWidth
	s.PaperHeight = c.DefaultPaperHeight
	s.Margins = c.DefaultMargins
	s.LayoutWidth = c.DefaultLayoutWidth
	s.RotationNumber = c.DefaultRotationNumber
	s.GroupingStrategy = c.DefaultGroupingStrategy
	s.NestingTime = c.DefaultNestingTime
	s.EfficiencyCoefficient = c.DefaultEfficiency
	s.FollowGrainline = c.DefaultFollowGrainline
	s.Verbose = s.Verbose || c.Verbose
}
