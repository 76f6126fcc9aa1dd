package fake

import (
	"context"
)

// actuateGripper runs one tick of the binary gripper. A negative command closes it, grasping a
// graspable object the hand touches; a positive command opens it, dropping whatever it held where it
// is. Zero leaves it alone.
func (w *World) actuateGripper(cmd float64) error {
	switch {
	case cmd < 0:
		w.open = false
		if w.held != "" {
			return nil
		}
		contacts, err := w.handContacts()
		if err != nil {
			return err
		}
		for _, c := range contacts {
			if w.objects[c.BodyB].graspable {
				w.held = c.BodyB
				w.logger.Debugw("grasped", "object", w.held)
				return nil
			}
		}
	case cmd > 0:
		w.open = true
		if w.held != "" {
			w.logger.Debugw("released", "object", w.held)
			w.held = ""
		}
	}
	return nil
}

// HeldObject implements host.GraspQuery.
func (w *World) HeldObject(ctx context.Context, arm string) (string, bool, error) {
	if err := w.checkArm(arm); err != nil {
		return "", false, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.held, w.held != "", nil
}

func (w *World) gripperOpening() float64 {
	if w.open {
		return w.cfg.FingerLength
	}
	return 0
}
