package monitor

// Registry holds the visible devices in arrival order and the permanent
// deny-list of blocked ids. An id is never both visible and blocked.
//
// Registry is not safe for concurrent use; Dashboard owns it behind its mutex.
type Registry struct {
	order   []string
	devices map[string]Device
	blocked map[string]struct{}
}

// NewRegistry creates a registry seeded with previously blocked ids.
func NewRegistry(blocked ...string) *Registry {
	r := &Registry{
		devices: make(map[string]Device),
		blocked: make(map[string]struct{}, len(blocked)),
	}
	for _, id := range blocked {
		r.blocked[id] = struct{}{}
	}
	return r
}

// Register inserts d unless its id is blocked. Re-registering a visible id
// replaces the stored device in place. It reports whether d is now visible.
func (r *Registry) Register(d Device) bool {
	if r.IsBlocked(d.ID) {
		return false
	}
	if _, exists := r.devices[d.ID]; !exists {
		r.order = append(r.order, d.ID)
	}
	r.devices[d.ID] = d
	return true
}

// Get returns the visible device with the given id.
func (r *Registry) Get(id string) (Device, bool) {
	d, ok := r.devices[id]
	return d, ok
}

// Authorize marks a visible device as permitted.
func (r *Registry) Authorize(id string) (Device, bool) {
	d, ok := r.devices[id]
	if !ok {
		return Device{}, false
	}
	d.Authorized = true
	r.devices[id] = d
	return d, true
}

// Block removes a visible device and adds its id to the blocked set.
func (r *Registry) Block(id string) (Device, bool) {
	d, ok := r.devices[id]
	if !ok {
		return Device{}, false
	}
	delete(r.devices, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	r.blocked[id] = struct{}{}
	return d, true
}

// IsBlocked reports whether id is on the deny-list.
func (r *Registry) IsBlocked(id string) bool {
	_, ok := r.blocked[id]
	return ok
}

// List returns the visible devices in arrival order.
func (r *Registry) List() []Device {
	out := make([]Device, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.devices[id])
	}
	return out
}

// Len returns the number of visible devices.
func (r *Registry) Len() int {
	return len(r.order)
}

// BlockedCount returns the size of the deny-list.
func (r *Registry) BlockedCount() int {
	return len(r.blocked)
}
