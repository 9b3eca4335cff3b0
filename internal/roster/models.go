package roster

type University struct {
	UID      string `json:"uid"`
	Name     string `json:"name"`
	EmailID  string `json:"email_id,omitempty"`
	UserID   string `json:"user_id,omitempty"`
	Password string `json:"password,omitempty"`
	LogoLink string `json:"logo_link,omitempty"`
}

type Batch struct {
	BatchID string `json:"batch_id"`
	UniID   string `json:"uni_id"`
	Name    string `json:"batch_name"`
	// RegisteredCourseIDs joins a batch to its course metadata rows.
	RegisteredCourseIDs []string `json:"registered_courses_id"`
}

type Student struct {
	StudentID        string `json:"student_id"`
	Name             string `json:"student_name"`
	UniID            string `json:"uni_id"`
	BatchID          string `json:"batch_id"`
	UserID           string `json:"user_id"`
	Password         string `json:"password,omitempty"`
	EmailID          string `json:"email_id,omitempty"`
	PhoneNum         string `json:"phone_num,omitempty"`
	UniRegID         string `json:"uni_reg_id,omitempty"`
	Section          string `json:"section,omitempty"`
	ProfileImageLink string `json:"profile_image_link,omitempty"`
}

// Profile is a Student without credentials, safe to return after login or
// from profile reads.
type Profile struct {
	StudentID        string `json:"student_id"`
	Name             string `json:"student_name"`
	UniID            string `json:"uni_id"`
	BatchID          string `json:"batch_id"`
	EmailID          string `json:"email_id,omitempty"`
	PhoneNum         string `json:"phone_num,omitempty"`
	UniRegID         string `json:"uni_reg_id,omitempty"`
	Section          string `json:"section,omitempty"`
	ProfileImageLink string `json:"profile_image_link,omitempty"`
}

func (s Student) Profile() Profile {
	return Profile{
		StudentID:        s.StudentID,
		Name:             s.Name,
		UniID:            s.UniID,
		BatchID:          s.BatchID,
		EmailID:          s.EmailID,
		PhoneNum:         s.PhoneNum,
		UniRegID:         s.UniRegID,
		Section:          s.Section,
		ProfileImageLink: s.ProfileImageLink,
	}
}

// CourseMeta is the catalog entry for a course; the content tree itself
// lives in the content store.
type CourseMeta struct {
	CourseID      string `json:"course_id"`
	Name          string `json:"course_name"`
	Description   string `json:"description,omitempty"`
	ThumbnailLink string `json:"thumbnail_link,omitempty"`
}
