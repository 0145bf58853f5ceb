package core

// RecipientKind tags the category a recipient descriptor belongs to, keyed
// on which marker field the descriptor carries.
type RecipientKind int

const (
	KindEmail RecipientKind = iota
	KindSMS
	KindUser
	KindUnknown
)

// KindOf classifies a single recipient descriptor by its marker key.
func KindOf(d map[string]any) RecipientKind {
	if _, ok := d["email"]; ok {
		return KindEmail
	}
	if _, ok := d["phoneNumber"]; ok {
		return KindSMS
	}
	if _, ok := d["userId"]; ok {
		return KindUser
	}
	return KindUnknown
}

// Recipients holds classified recipient descriptors, input order preserved
// within each bucket.
type Recipients struct {
	Emails  []string
	SMS     []any
	User    []any
	Unknown []any
}

// Supported reports how many deliverable recipients were classified.
func (r Recipients) Supported() int {
	return len(r.Emails) + len(r.SMS) + len(r.User)
}

// ClassifyRecipients partitions raw recipient descriptors into buckets.
// SMS and user recipients are not implemented yet: descriptors carrying a
// phoneNumber or userId marker land in Unknown rather than their own bucket,
// as does anything matching no marker at all.
func ClassifyRecipients(raw []any) Recipients {
	var out Recipients
	for _, item := range raw {
		d, ok := item.(map[string]any)
		if !ok {
			out.Unknown = append(out.Unknown, item)
			continue
		}
		switch KindOf(d) {
		case KindEmail:
			addr, _ := d["email"].(string)
			out.Emails = append(out.Emails, addr)
		default:
			out.Unknown = append(out.Unknown, item)
		}
	}
	return out
}
