package pattern

import "time"

type Pattern struct {
	Trigger   string    `json:"trigger"`
	Response  string    `json:"response"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"timestamp"`
}

type fileContents struct {
	Patterns    []Pattern `json:"patterns"`
	LastUpdated time.Time `json:"lastUpdated"`
}

type key struct {
	trigger  string
	response string
}

func (p Pattern) key() key {
	return key{trigger: p.Trigger, response: p.Response}
}
