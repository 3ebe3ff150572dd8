package api

// Role is the server-assigned account role.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// Credentials is the token pair returned by the login endpoint.
type Credentials struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type User struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	Email       string `json:"email"`
	Role        Role   `json:"role"`
	Points      int    `json:"points"`
	StudyStreak int    `json:"study_streak"`
}

// Task is the server's task record. SubjectName, UserName and UserRole are
// read-only fields denormalized by the server; DueDate is "" when unset.
type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Subject     int64  `json:"subject"`
	SubjectName string `json:"subject_name"`
	Priority    string `json:"priority"` // low, medium, high
	Completed   bool   `json:"completed"`
	DueDate     string `json:"due_date"` // YYYY-MM-DD
	UserName    string `json:"user_name"`
	UserRole    Role   `json:"user_role"`
}

type Subject struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// WeeklyBucket is one day of the server's pre-aggregated completion counts.
type WeeklyBucket struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

type AdminStats struct {
	TotalUsers    int `json:"total_users"`
	TotalTasks    int `json:"total_tasks"`
	StudentsCount int `json:"students_count"`
	AdminsCount   int `json:"admins_count"`
}

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role,omitempty"`
}

type CreateTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Subject     int64  `json:"subject"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date,omitempty"`
}

// TaskPatch carries a partial update; nil fields are left untouched by the
// server.
type TaskPatch struct {
	Title     *string `json:"title,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
	Priority  *string `json:"priority,omitempty"`
	DueDate   *string `json:"due_date,omitempty"`
}
