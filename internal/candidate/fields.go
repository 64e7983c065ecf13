package candidate

// Field identifies one of the structured attributes collected from a candidate.
type Field string

const (
	FullName         Field = "full_name"
	DesiredPositions Field = "desired_positions"
	Email            Field = "email"
	Phone            Field = "phone"
	YearsExperience  Field = "years_experience"
	Location         Field = "location"
	TechStack        Field = "tech_stack"
)

// Fields is the fixed collection order.
var Fields = []Field{
	FullName,
	DesiredPositions,
	Email,
	Phone,
	YearsExperience,
	Location,
	TechStack,
}

var prompts = map[Field]string{
	FullName:         "What's your full name?",
	DesiredPositions: "Which position(s) are you targeting?",
	Email:            "Please share your email address.",
	Phone:            "What's the best phone number to reach you?",
	YearsExperience:  "How many years of experience do you have?",
	Location:         "What's your current location (city, country)?",
	TechStack:        "List your tech stack (languages, frameworks, databases, tools).",
}

// Prompt returns the question asked to fill the field.
func (f Field) Prompt() string {
	return prompts[f]
}

func (f Field) String() string { return string(f) }

// Index returns the position of the field in Fields or -1 when unknown.
func (f Field) Index() int {
	for i, field := range Fields {
		if field == f {
			return i
		}
	}
	return -1
}
