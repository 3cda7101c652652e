package taxonomy

// Default returns the built-in TNA subdomain table. Declaration order is the
// feature order the bundled classifiers were trained on.
func Default() *Table {
	t, err := New(defaultEntries())
	if err != nil {
		panic("taxonomy: invalid built-in table: " + err.Error())
	}
	return t
}

func defaultEntries() []Entry {
	return []Entry{
		{
			Code:  "A11",
			Label: "Subject Knowledge",
			Topics: []string{
				"Advanced Subject Masterclasses",
				"Emerging Interdisciplinary Trends",
				"AI Applications in Discipline",
				"Future Skills in Domain",
				"Deep Dive Conceptual Workshops",
				"Cutting-edge Innovations",
			},
		},
		{
			Code:  "A12",
			Label: "Teaching Methods - Theoretical Knowledge",
			Topics: []string{
				"AI-enhanced Teaching Strategies",
				"Flipped & Hybrid Classrooms",
				"Socratic & Case-based Learning",
				"Interactive Lecture Design",
				"Learning Analytics for Theory",
				"Digital Pedagogy Essentials",
			},
		},
		{
			Code:  "A13",
			Label: "Teaching Methods - Practical Application",
			Topics: []string{
				"Project-based & Experiential Learning",
				"AI Labs & Virtual Simulations",
				"Industry-aligned Practical Pedagogy",
				"Blended Hands-on Approaches",
				"Design Thinking in Curriculum",
				"Immersive Tech for Practical Learning",
			},
		},
		{
			Code:  "A14",
			Label: "Information Literacy and Management",
			Topics: []string{
				"Data Mining for Faculty",
				"AI Tools for Information Management",
				"Reference Managers & Literature Maps",
				"Smart Digital Libraries",
				"Evidence-based Information Use",
				"Scholarly Database Training",
			},
		},
		{
			Code:  "A15",
			Label: "Languages",
			Topics: []string{
				"Scholarly Writing & Technical English",
				"AI-based Language Tools",
				"Academic Presentation Skills",
				"Discipline-specific Communication",
				"Language Models for Research",
				"Multilingual Digital Tools",
			},
		},
		{
			Code:  "A16",
			Label: "Academic Literacy and Numeracy",
			Topics: []string{
				"Quantitative Reasoning in Academia",
				"AI for Research Methods",
				"Data Interpretation Skills",
				"Academic Integrity & Writing",
				"Survey Design & Analysis",
				"Numeracy in Social Sciences",
			},
		},

		{
			Code:  "A21",
			Label: "Analyzing",
			Topics: []string{
				"AI for Critical Analysis",
				"Root Cause & Data-driven Analysis",
				"Analytical Thinking Labs",
				"Systems Thinking Approaches",
				"Data Visualization & Interpretation",
				"Strategic Problem Dissection",
			},
		},
		{
			Code:  "A22",
			Label: "Synthesizing",
			Topics: []string{
				"Synthesis & Concept Mapping",
				"Interdisciplinary Integration",
				"AI to Discover Connections",
				"Thematic Reviews & Meta-analysis",
				"Big Picture Thinking",
				"Synthesizing Evidence & Policy",
			},
		},
		{
			Code:  "A23",
			Label: "Critical Thinking",
			Topics: []string{
				"Debate & Argumentation Workshops",
				"Logic & Reasoning Bootcamps",
				"Reflective Inquiry with AI",
				"Case & Scenario Analysis",
				"Bias & Fallacy Awareness",
				"Building Intellectual Autonomy",
			},
		},
		{
			Code:  "A24",
			Label: "Evaluating",
			Topics: []string{
				"Outcome Assessment Tools",
				"AI-driven Rubric Design",
				"Evaluating Impact & ROI",
				"Peer Review & Feedback Loops",
				"Digital Assessment Platforms",
				"Evaluation in Accreditation Contexts",
			},
		},
		{
			Code:  "A25",
			Label: "Problem Solving",
			Topics: []string{
				"AI for Decision Support",
				"Creative Problem Solving Frameworks",
				"Hackathons & Solution Labs",
				"Scenario Planning",
				"Collaborative Problem Solving",
				"Complex Systems Solutions",
			},
		},

		{
			Code:  "A31",
			Label: "Inquiring Mind",
			Topics: []string{
				"Cultivating Curiosity",
				"Research Question Design",
				"AI Tools to Explore Ideas",
				"Inquiry-based Teaching",
				"Creative Thinking Labs",
				"Exploratory Learning Pathways",
			},
		},
		{
			Code:  "A32",
			Label: "Intellectual Insight",
			Topics: []string{
				"Advanced Conceptual Frameworks",
				"Strategic Scenario Building",
				"Abstract Modelling with AI",
				"Futures & Foresight",
				"Analytical Depth Workshops",
				"Strategic Research Visioning",
			},
		},
		{
			Code:  "A33",
			Label: "Innovation",
			Topics: []string{
				"Innovation & Design Sprints",
				"AI-driven Creativity",
				"Startup Ecosystems for Faculty",
				"Patents & Prototyping",
				"Entrepreneurial Mindset",
				"EdTech Innovations",
			},
		},
		{
			Code:  "A34",
			Label: "Argument Construction",
			Topics: []string{
				"Evidence-based Argumentation",
				"Position Papers with AI Support",
				"Ethics in Debates",
				"Structuring Research Arguments",
				"Critical Dialogues",
				"Policy Argument Labs",
			},
		},

		{
			Code:  "B11",
			Label: "Enthusiasm",
			Topics: []string{
				"Gamification & Motivation",
				"Fostering Passion in Teaching",
				"AI Tools to Engage Learners",
				"Positive Pedagogy Practices",
				"Energy Management",
				"Joyful Learning Approaches",
			},
		},
		{
			Code:  "B12",
			Label: "Perseverance",
			Topics: []string{
				"Building Academic Resilience",
				"Overcoming Teaching Challenges",
				"Goal Mapping for Long-term Impact",
				"Grit & Growth Mindset",
				"Handling Failures in Research",
				"Sustaining Motivation",
			},
		},
		{
			Code:  "B13",
			Label: "Integrity",
			Topics: []string{
				"Academic & Research Ethics",
				"Plagiarism Tools & AI Checkers",
				"Responsible Data Use",
				"Integrity in Publications",
				"Moral Reasoning in Teaching",
				"AI Bias & Ethics",
			},
		},
		{
			Code:  "B14",
			Label: "Responsibility",
			Topics: []string{
				"Owning the Learning Process",
				"Self-directed Faculty Development",
				"Portfolio-driven Growth",
				"Accountability in Projects",
				"Ethical Leadership",
				"Service Commitments",
			},
		},

		{
			Code:  "B21",
			Label: "Preparation and Prioritization",
			Topics: []string{
				"Data-informed Lesson Planning",
				"Timeboxing for Faculty",
				"AI Tools for Planning",
				"Strategic Prioritization",
				"Curriculum Blueprints",
				"Outcome-aligned Planning",
			},
		},
		{
			Code:  "B22",
			Label: "Commitment to Teaching",
			Topics: []string{
				"Professional Accountability",
				"Aligning Personal & Institutional Goals",
				"Reflective Teaching Practices",
				"Long-term Teaching Strategies",
				"Continuous Engagement Models",
				"Leveraging AI for Improvement",
			},
		},
		{
			Code:  "B23",
			Label: "Time Management",
			Topics: []string{
				"Digital Time Management Tools",
				"Efficient Academic Workflows",
				"AI-based Scheduling",
				"Deadline Management Strategies",
				"Balanced Research & Teaching",
				"Overcoming Procrastination",
			},
		},
		{
			Code:  "B24",
			Label: "Responsiveness to Change",
			Topics: []string{
				"Change Management Frameworks",
				"Adapting to EdTech & AI",
				"Risk-taking in Pedagogy",
				"Flexible Curriculum Approaches",
				"Navigating Policy Shifts",
				"Scenario-based Adaptability",
			},
		},

		{
			Code:  "B31",
			Label: "Continuing Professional Development",
			Topics: []string{
				"Career Progression Paths",
				"Certifications in AI & EdTech",
				"Global Fellowship Opportunities",
				"Showcasing in Digital Portfolios",
				"Professional Learning Networks",
				"Research Leadership",
			},
		},
		{
			Code:  "B32",
			Label: "Student Feedback",
			Topics: []string{
				"Collecting & Acting on Feedback",
				"AI Sentiment Analysis",
				"Closing the Feedback Loop",
				"Designing Effective Surveys",
				"Feedback for Curriculum Tuning",
				"Reflective Student Dialogues",
			},
		},
		{
			Code:  "B33",
			Label: "Networking",
			Topics: []string{
				"Building Inter-institutional Networks",
				"Collaborative Platforms",
				"AI-driven Professional Connects",
				"Conference Ecosystems",
				"Online Academic Communities",
				"Global Partnerships",
			},
		},
		{
			Code:  "B34",
			Label: "Reputation and Esteem",
			Topics: []string{
				"Thought Leadership via Digital Media",
				"Public Speaking Excellence",
				"AI-assisted Profile Building",
				"Awards & Recognition Prep",
				"Research Visibility",
				"Media Engagement Strategies",
			},
		},

		{
			Code:  "C11",
			Label: "Ethics, Principles, and Sustainability",
			Topics: []string{
				"Ethics in AI & Research",
				"Green Campuses & Teaching",
				"Sustainable Development Goals in Curriculum",
				"Responsible Innovations",
				"Equity-focused Pedagogy",
				"AI for Social Good",
			},
		},
		{
			Code:  "C12",
			Label: "Intellectual Property Rights and Copyright",
			Topics: []string{
				"IPR & Patents Filing",
				"Copyright Compliance",
				"AI-generated Content Ethics",
				"Creative Commons Licenses",
				"Fair Use in Academia",
				"Data Sharing Agreements",
			},
		},

		{
			Code:  "C21",
			Label: "Research Strategy",
			Topics: []string{
				"Aligning with Institutional Missions",
				"Data-driven Strategic Planning",
				"AI to Spot Research Gaps",
				"Collaborative Strategy Labs",
				"Foresight-driven Research",
				"NEP 2020 & Beyond",
			},
		},

		{
			Code:  "C31",
			Label: "Income and Funding Generation",
			Topics: []string{
				"Grant Proposal Writing",
				"AI Tools for Funding Match",
				"Budget Planning Workshops",
				"CSR & Industry Funding",
				"International Grants",
				"Revenue Diversification Strategies",
			},
		},

		{
			Code:  "D11",
			Label: "Team Working",
			Topics: []string{
				"High-performing Academic Teams",
				"Collaborative Research Tools",
				"AI for Team Dynamics",
				"Shared Vision Development",
				"Cross-functional Synergies",
				"Joint Faculty Development",
			},
		},
		{
			Code:  "D12",
			Label: "People Management",
			Topics: []string{
				"Delegation & Empowerment",
				"Negotiating & Influencing",
				"Conflict Resolution",
				"Mentoring Diverse Teams",
				"AI Tools for HR & Planning",
				"Building Psychological Safety",
			},
		},
		{
			Code:  "D13",
			Label: "Supervision",
			Topics: []string{
				"Effective Research Supervision",
				"AI for Plagiarism & Review",
				"Mentored Assessments",
				"Outcome-driven Project Management",
				"Guided Inquiry Techniques",
				"Tracking Progress Digitally",
			},
		},
		{
			Code:  "D14",
			Label: "Mentoring",
			Topics: []string{
				"Structured Mentorship Programs",
				"Skill Transfer Models",
				"Reverse Mentoring",
				"Inclusive Mentoring Approaches",
				"Mentoring for Innovation",
				"Longitudinal Faculty Mentoring",
			},
		},
		{
			Code:  "D15",
			Label: "Influence and Leadership",
			Topics: []string{
				"Institutional Leadership Labs",
				"Strategic Influence Models",
				"Policy Advocacy & AI",
				"Community Engagement",
				"Ethical Leadership in AI Era",
				"Vision & Legacy Building",
			},
		},
		{
			Code:  "D16",
			Label: "Collaboration",
			Topics: []string{
				"Joint Research Ventures",
				"Industry-academia Connects",
				"Digital Collaboration Tools",
				"Global Research Consortia",
				"Virtual International Teams",
				"Collaborative Publishing",
			},
		},
		{
			Code:  "D17",
			Label: "Equality and Diversity",
			Topics: []string{
				"Inclusive Pedagogies",
				"Diversity Sensitization Labs",
				"Equity Audits",
				"Policy for Inclusion",
				"AI & Bias Awareness",
				"Universal Design for Learning",
			},
		},

		{
			Code:  "D21",
			Label: "Communication Methods",
			Topics: []string{
				"AI-powered Communication Platforms",
				"Public Engagement",
				"Academic Storytelling",
				"Policy Brief Writing",
				"Science Communication",
				"Stakeholder Reporting",
			},
		},
		{
			Code:  "D22",
			Label: "Communication Media",
			Topics: []string{
				"Digital Outreach Strategies",
				"Webinars & MOOCs Design",
				"Social Media for Academia",
				"Video Lecturing Best Practices",
				"Podcasting Academic Content",
				"AI in Media Production",
			},
		},
		{
			Code:  "D23",
			Label: "Publication",
			Topics: []string{
				"Publishing in High Impact Journals",
				"Open Access Strategies",
				"AI for Manuscript Editing",
				"Conference Paper Excellence",
				"Ethics in Publication",
				"Boosting Research Visibility",
			},
		},

		{
			Code:  "D31",
			Label: "Teaching",
			Topics: []string{
				"AI-enhanced Teaching Aids",
				"Capstone & UG Research Projects",
				"Industry-driven Seminars",
				"Outcome-based Education",
				"Student-centred Learning",
				"Hybrid Teaching Environments",
			},
		},
		{
			Code:  "D32",
			Label: "Policy",
			Topics: []string{
				"NBA/NAAC & Global Benchmarks",
				"Policy Impact on Teaching",
				"Digital Policies in Education",
				"NEP 2020 Implementation",
				"AI in Education Policies",
				"Accreditation-readiness",
			},
		},
	}
}
