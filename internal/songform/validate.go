package songform

import "strings"

// Field identifies one of the required inputs on the song request form.
type Field int

const (
	FieldNone Field = iota
	FieldSongName
	FieldClassName
	FieldStudentName
)

// validationOrder is the order fields are checked in. The first missing one wins.
var validationOrder = []Field{FieldSongName, FieldClassName, FieldStudentName}

// ID returns the stable form element id for the field.
func (f Field) ID() string {
	switch f {
	case FieldSongName:
		return "song_name"
	case FieldClassName:
		return "class_name"
	case FieldStudentName:
		return "student_name"
	default:
		return ""
	}
}

// Message returns the prompt shown when the field is left empty.
func (f Field) Message() string {
	switch f {
	case FieldSongName:
		return "请输入歌曲名称"
	case FieldClassName:
		return "请输入班级"
	case FieldStudentName:
		return "请输入姓名"
	default:
		return ""
	}
}

func (f Field) String() string {
	if id := f.ID(); id != "" {
		return id
	}
	return "none"
}

// Values holds the raw text of the three required inputs at submit time.
type Values struct {
	SongName    string `json:"song_name" form:"song_name"`
	ClassName   string `json:"class_name" form:"class_name"`
	StudentName string `json:"student_name" form:"student_name"`
}

// Get returns the raw value of f.
func (v Values) Get(f Field) string {
	switch f {
	case FieldSongName:
		return v.SongName
	case FieldClassName:
		return v.ClassName
	case FieldStudentName:
		return v.StudentName
	default:
		return ""
	}
}

// Result is the outcome of a single validation pass.
type Result struct {
	Valid        bool
	FirstInvalid Field
}

// Message is the prompt for the first invalid field, empty when valid.
func (r Result) Message() string {
	return r.FirstInvalid.Message()
}

// Validate checks that song, class and student name are present, in that
// order, and stops at the first one that is empty or whitespace only.
func Validate(v Values) Result {
	for _, f := range validationOrder {
		if strings.TrimSpace(v.Get(f)) == "" {
			return Result{Valid: false, FirstInvalid: f}
		}
	}
	return Result{Valid: true, FirstInvalid: FieldNone}
}
