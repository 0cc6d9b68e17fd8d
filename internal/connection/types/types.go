// Package types - пакет со структурами ответа
package types

// Header - заголовок ответа
type Header struct {
	Name  string
	Value string
}

// Response - ответ клиенту: строка статуса, заголовки в порядке добавления, тело
type Response struct {
	StatusLine string
	Headers    []Header
	Body       []byte
	// Code - код статуса, только для логирования
	Code int
}

// AddHeader - добавить заголовок в конец списка
func (r *Response) AddHeader(name, value string) {
	r.Headers = append(r.Headers, Header{Name: name, Value: value})
}

// Header - значение первого заголовка с именем name
func (r *Response) Header(name string) (string, bool) {
	for _, h := range r.Headers {
		if h.Name == name {
			return h.Value, true
		}
	}

	return "", false
}
