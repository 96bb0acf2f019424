package models

// URLRecord is a stored URL together with its derived short code.
type URLRecord struct {
	ID     int64  `json:"-" db:"id"`
	Code   string `json:"code" db:"-"`
	URL    string `json:"url" db:"url"`
	Active bool   `json:"active" db:"active"`
}

// Optional distinguishes "leave unchanged" from "set to value".
type Optional[T any] struct {
	value T
	set   bool
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{value: v, set: true}
}

func None[T any]() Optional[T] {
	return Optional[T]{}
}

func (o Optional[T]) Get() (T, bool) {
	return o.value, o.set
}

func (o Optional[T]) IsSet() bool {
	return o.set
}

// URLPatch is a partial update of a URLRecord. Unset fields are left untouched.
type URLPatch struct {
	URL    Optional[string]
	Active Optional[bool]
}

func (p URLPatch) IsEmpty() bool {
	return !p.URL.IsSet() && !p.Active.IsSet()
}

// Apply returns r with every set field of p applied.
func (p URLPatch) Apply(r URLRecord) URLRecord {
	if url, ok := p.URL.Get(); ok {
		r.URL = url
	}
	if active, ok := p.Active.Get(); ok {
		r.Active = active
	}
	return r
}

type Status string

const (
	StatusSuccess Status = "success"
	StatusWarning Status = "warning"
)

type URLRequest struct {
	URL string `json:"url"`
}

type URLResponse struct {
	Code     string `json:"code"`
	ShortURL string `json:"short_url"`
	URL      string `json:"url"`
	Active   bool   `json:"active"`
}

// Envelope wraps every successful API response.
type Envelope[T any] struct {
	Data   T       `json:"data"`
	Status Status  `json:"status"`
	Errors *string `json:"errors"`
}

type ErrorResponse struct {
	Detail string `json:"detail"`
}

type BatchRequest []URLRequest
