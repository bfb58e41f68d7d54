package catalogue

// Default returns the built-in RPO AI Acceleration Program catalogue.
func Default() *Catalogue {
	modules := []Module{
		{ID: "module-1", Title: "Module 1: Prompting & Writing — The C.R.E.A.T.E. Framework"},
		{ID: "module-2", Title: "Module 2: Sourcing & Research"},
		{ID: "module-3", Title: "Module 3: Data & Knowledge"},
		{ID: "module-4", Title: "Module 4: Automation"},
		{ID: "module-5", Title: "Module 5: Train the Trainer"},
		{ID: "module-6", Title: "Module 6: Strategy & Governance"},
		{ID: "module-7", Title: "Module 7: Measuring Impact"},
	}
	sessions := []Session{
		{ID: "session-1-1", Title: "Session 1.1: Prompt Engineering 101"},
		{ID: "session-1-2", Title: "Session 1.2: AI-Powered Email Lab"},
		{ID: "session-1-3", Title: "Session 1.3: Success Spotlight & Clinic"},
		{ID: "session-2-1", Title: "Session 2.1: AI for Advanced Sourcing"},
		{ID: "session-2-2", Title: "Session 2.2: The Randstad AI Toolkit"},
		{ID: "session-2-3", Title: "Session 2.3: Responsible AI & Showcase"},
		{ID: "session-3-1", Title: "Session 3.1: Data Insights in Sheets"},
		{ID: "session-3-2", Title: "Session 3.2: Building a Knowledge Base"},
		{ID: "session-4-1", Title: "Session 4.1: Intro to Automation"},
		{ID: "session-5-1", Title: "Session 5.1: Becoming an AI Champion"},
		{ID: "session-5-2", Title: "Session 5.2: Capstone Project Showcase"},
		{ID: "session-6-1", Title: "Session 6.1: Developing an AI Roadmap"},
		{ID: "session-7-1", Title: "Session 7.1: The ROI of AI in Recruiting"},
	}
	order := []SessionID{
		"session-1-1", "session-1-2", "session-1-3",
		"session-2-1", "session-2-2", "session-2-3",
		"session-3-1", "session-3-2", "session-4-1",
		"session-5-1", "session-5-2", "session-6-1",
		"session-7-1",
	}

	c, err := New("RPO AI Acceleration Program", modules, sessions, order)
	if err != nil {
		panic("catalogue: built-in catalogue is invalid: " + err.Error())
	}
	return c
}
