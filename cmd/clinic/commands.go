package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/and161185/clinic-keeper/internal/app"
	"github.com/and161185/clinic-keeper/internal/errs"
	"github.com/and161185/clinic-keeper/internal/model"
	"github.com/and161185/clinic-keeper/internal/validate"
)

type cli struct {
	app    *app.App
	out    io.Writer
	errOut io.Writer
	userID string
}

func notFound(what, id string) error {
	return fmt.Errorf("%w: %s %q", errs.ErrNotFound, what, id)
}

// show prints rec or reports a missing record.
func show[T any](c *cli, what, id string, rec T, ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return notFound(what, id)
	}
	printJSON(c.out, rec)
	return nil
}

func (c *cli) removed(what, id string, ok bool, err error) error {
	if err != nil {
		return err
	}
	if !ok {
		return notFound(what, id)
	}
	fmt.Fprintln(c.out, "ok")
	return nil
}

func sub(args []string) (string, []string, error) {
	if len(args) < 1 {
		return "", nil, errUsage
	}
	return args[0], args[1:], nil
}

// ---- session ----

func (c *cli) initStore(ctx context.Context) error {
	chairs, err := c.app.Assignment.ListChairs(ctx)
	if err != nil {
		return err
	}
	printJSON(c.out, map[string]any{"ok": true, "chairs": len(chairs)})
	return nil
}

func (c *cli) login(ctx context.Context, args []string) error {
	fs := newFlags("login", c.errOut)
	u := fs.String("u", "", "username")
	p := fs.String("p", "", "password")
	if err := fs.parse(args); err != nil {
		return err
	}
	if err := fs.need("u", "p"); err != nil {
		return err
	}
	rec, ok, err := c.app.Auth.Login(ctx, *u, *p, "127.0.0.1")
	if err != nil {
		return err
	}
	if !ok {
		return errBadLogin
	}
	fmt.Fprintf(c.out, "ok (expires %s)\n", rec.ExpiresAt.Format("2006-01-02 15:04"))
	return nil
}

func (c *cli) passwd(ctx context.Context, args []string) error {
	fs := newFlags("passwd", c.errOut)
	oldPass := fs.String("old", "", "current password")
	newPass := fs.String("new", "", "new password")
	if err := fs.parse(args); err != nil {
		return err
	}
	if err := fs.need("old", "new"); err != nil {
		return err
	}
	if err := c.app.Auth.ChangePassword(ctx, c.userID, *oldPass, *newPass); err != nil {
		return err
	}
	fmt.Fprintln(c.out, "ok")
	return nil
}

func (c *cli) useradd(ctx context.Context, args []string) error {
	fs := newFlags("useradd", c.errOut)
	u := fs.String("u", "", "username")
	p := fs.String("p", "", "password")
	if err := fs.parse(args); err != nil {
		return err
	}
	user, err := c.app.Auth.Register(ctx, *u, *p)
	if err != nil {
		return err
	}
	printJSON(c.out, user)
	return nil
}

// ---- patients ----

type patientFlags struct {
	given, family, rut, birth, phone, email, chair, notes, meds *string
}

func bindPatient(fs *flags) patientFlags {
	return patientFlags{
		given:  fs.String("given", "", "given names"),
		family: fs.String("family", "", "family names"),
		rut:    fs.String("rut", "", "national id (RUT)"),
		birth:  fs.String("birth", "", "birth date YYYY-MM-DD"),
		phone:  fs.String("phone", "", "phone (+56 9 XXXX XXXX)"),
		email:  fs.String("email", "", "email"),
		chair:  fs.String("chair", "", "assigned chair id (empty releases)"),
		notes:  fs.String("notes", "", "notes"),
		meds:   fs.String("meds", "", "comma-separated medication names"),
	}
}

func (c *cli) patients(ctx context.Context, args []string) error {
	op, args, err := sub(args)
	if err != nil {
		return err
	}
	svc := c.app.Assignment
	fs := newFlags("patients "+op, c.errOut)
	id := fs.String("id", "", "patient id")

	switch op {
	case "list":
		if err := fs.parse(args); err != nil {
			return err
		}
		items, err := svc.ListPatients(ctx)
		if err != nil {
			return err
		}
		printJSON(c.out, items)
		return nil

	case "get":
		if err := fs.parse(args); err != nil {
			return err
		}
		p, ok, err := svc.GetPatient(ctx, *id)
		return show(c, "patient", *id, p, ok, err)

	case "add":
		pf := bindPatient(fs)
		if err := fs.parse(args); err != nil {
			return err
		}
		birth, err := parseDay(*pf.birth)
		if err != nil {
			return err
		}
		p, err := svc.CreatePatient(ctx, model.Patient{
			GivenNames:      *pf.given,
			FamilyNames:     *pf.family,
			NationalID:      validate.FormatRUT(*pf.rut),
			BirthDate:       birth,
			Phone:           *pf.phone,
			Email:           *pf.email,
			AssignedChairID: *pf.chair,
			Notes:           *pf.notes,
			Medications:     splitList(*pf.meds),
		})
		if err != nil {
			return err
		}
		printJSON(c.out, p)
		return nil

	case "edit":
		pf := bindPatient(fs)
		if err := fs.parse(args); err != nil {
			return err
		}
		if err := fs.need("id"); err != nil {
			return err
		}
		birth, err := changedDay(fs, "birth", *pf.birth)
		if err != nil {
			return err
		}
		patch := model.PatientPatch{
			GivenNames:      changed(fs, "given", *pf.given),
			FamilyNames:     changed(fs, "family", *pf.family),
			NationalID:      changed(fs, "rut", validate.FormatRUT(*pf.rut)),
			BirthDate:       birth,
			Phone:           changed(fs, "phone", *pf.phone),
			Email:           changed(fs, "email", *pf.email),
			AssignedChairID: changed(fs, "chair", *pf.chair),
			Notes:           changed(fs, "notes", *pf.notes),
			Medications:     changed(fs, "meds", splitList(*pf.meds)),
		}
		p, ok, err := svc.UpdatePatient(ctx, *id, patch)
		return show(c, "patient", *id, p, ok, err)

	case "rm":
		if err := fs.parse(args); err != nil {
			return err
		}
		ok, err := svc.DeletePatient(ctx, *id)
		return c.removed("patient", *id, ok, err)
	}
	return errUsage
}

// ---- chairs ----

func (c *cli) chairs(ctx context.Context, args []string) error {
	op, args, err := sub(args)
	if err != nil {
		return err
	}
	svc := c.app.Assignment
	fs := newFlags("chairs "+op, c.errOut)
	id := fs.String("id", "", "chair id")

	switch op {
	case "list":
		avail := fs.Bool("available", false, "only free chairs")
		if err := fs.parse(args); err != nil {
			return err
		}
		var items []model.Chair
		if *avail {
			items, err = svc.ListAvailableChairs(ctx)
		} else {
			items, err = svc.ListChairs(ctx)
		}
		if err != nil {
			return err
		}
		printJSON(c.out, items)
		return nil

	case "add":
		number := fs.Int("number", 0, "chair number (unique)")
		name := fs.String("name", "", "display name")
		if err := fs.parse(args); err != nil {
			return err
		}
		if *name == "" {
			*name = fmt.Sprintf("Chair %d", *number)
		}
		ch, err := svc.CreateChair(ctx, model.Chair{Number: *number, Name: *name, Available: true})
		if err != nil {
			return err
		}
		printJSON(c.out, ch)
		return nil

	case "edit":
		number := fs.Int("number", 0, "chair number")
		name := fs.String("name", "", "display name")
		if err := fs.parse(args); err != nil {
			return err
		}
		ch, ok, err := svc.UpdateChair(ctx, *id, model.ChairPatch{
			Number: changed(fs, "number", *number),
			Name:   changed(fs, "name", *name),
		})
		return show(c, "chair", *id, ch, ok, err)

	case "avail":
		set := fs.Bool("set", true, "availability")
		if err := fs.parse(args); err != nil {
			return err
		}
		ch, ok, err := svc.SetChairAvailability(ctx, *id, *set)
		return show(c, "chair", *id, ch, ok, err)

	case "occupant":
		if err := fs.parse(args); err != nil {
			return err
		}
		p, ok, err := svc.OccupantOf(ctx, *id)
		return show(c, "occupant of chair", *id, p, ok, err)

	case "rm":
		if err := fs.parse(args); err != nil {
			return err
		}
		ok, err := svc.DeleteChair(ctx, *id)
		return c.removed("chair", *id, ok, err)

	case "check":
		if err := fs.parse(args); err != nil {
			return err
		}
		v, err := svc.CheckConsistency(ctx)
		if err != nil {
			return err
		}
		printJSON(c.out, map[string]any{"consistent": len(v) == 0, "violations": v})
		if len(v) > 0 {
			return errInconsistent
		}
		return nil
	}
	return errUsage
}

// ---- inventory ----

type medFlags struct {
	name, desc, unit, exp, lot, supplier *string
	qty                                  *float64
}

func bindMed(fs *flags) medFlags {
	return medFlags{
		name:     fs.String("name", "", "name"),
		desc:     fs.String("desc", "", "description"),
		qty:      fs.Float64("qty", 0, "quantity"),
		unit:     fs.String("unit", "", "unit (mg, ml, ampolla...)"),
		exp:      fs.String("exp", "", "expiration date YYYY-MM-DD"),
		lot:      fs.String("lot", "", "lot number"),
		supplier: fs.String("supplier", "", "supplier"),
	}
}

func (c *cli) meds(ctx context.Context, args []string) error {
	op, args, err := sub(args)
	if err != nil {
		return err
	}
	svc := c.app.Inventory
	fs := newFlags("meds "+op, c.errOut)
	id := fs.String("id", "", "medication id")

	var items []model.Medication
	switch op {
	case "list", "low":
		if err := fs.parse(args); err != nil {
			return err
		}
		if op == "low" {
			items, err = svc.ListLowStock(ctx)
		} else {
			items, err = svc.ListMedications(ctx)
		}

	case "expiry":
		status := fs.String("status", string(model.ExpiryExpiring), "expired|expiring|valid")
		if err := fs.parse(args); err != nil {
			return err
		}
		st := model.ExpiryStatus(*status)
		if st != model.ExpiryExpired && st != model.ExpiryExpiring && st != model.ExpiryValid {
			return fmt.Errorf("%w: status %q", errs.ErrValidation, *status)
		}
		items, err = svc.ListByExpiry(ctx, st)

	case "add":
		mf := bindMed(fs)
		if err := fs.parse(args); err != nil {
			return err
		}
		exp, err := parseDay(*mf.exp)
		if err != nil {
			return err
		}
		m, err := svc.CreateMedication(ctx, model.Medication{
			Name: *mf.name, Description: *mf.desc, Quantity: *mf.qty, Unit: *mf.unit,
			ExpirationDate: exp, LotNumber: *mf.lot, Supplier: *mf.supplier,
		})
		if err != nil {
			return err
		}
		printJSON(c.out, m)
		return nil

	case "edit":
		mf := bindMed(fs)
		if err := fs.parse(args); err != nil {
			return err
		}
		exp, err := changedDay(fs, "exp", *mf.exp)
		if err != nil {
			return err
		}
		m, ok, err := svc.UpdateMedication(ctx, *id, model.MedicationPatch{
			Name:           changed(fs, "name", *mf.name),
			Description:    changed(fs, "desc", *mf.desc),
			Quantity:       changed(fs, "qty", *mf.qty),
			Unit:           changed(fs, "unit", *mf.unit),
			ExpirationDate: exp,
			LotNumber:      changed(fs, "lot", *mf.lot),
			Supplier:       changed(fs, "supplier", *mf.supplier),
		})
		return show(c, "medication", *id, m, ok, err)

	case "rm":
		if err := fs.parse(args); err != nil {
			return err
		}
		ok, err := svc.DeleteMedication(ctx, *id)
		return c.removed("medication", *id, ok, err)

	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	printJSON(c.out, items)
	return nil
}

// ---- schedule ----

func (c *cli) appts(ctx context.Context, args []string) error {
	op, args, err := sub(args)
	if err != nil {
		return err
	}
	svc := c.app.Schedule
	fs := newFlags("appts "+op, c.errOut)
	id := fs.String("id", "", "appointment id")

	switch op {
	case "list":
		patient := fs.String("patient", "", "only this patient's appointments")
		if err := fs.parse(args); err != nil {
			return err
		}
		var items []model.Appointment
		if *patient != "" {
			items, err = svc.ListAppointmentsByPatient(ctx, *patient)
		} else {
			items, err = svc.ListAppointments(ctx)
		}
		if err != nil {
			return err
		}
		printJSON(c.out, items)
		return nil

	case "add", "edit":
		patient := fs.String("patient", "", "patient id")
		date := fs.String("date", "", "date YYYY-MM-DD")
		at := fs.String("time", "", "time HH:MM")
		reason := fs.String("reason", "", "reason")
		notes := fs.String("notes", "", "notes")
		if err := fs.parse(args); err != nil {
			return err
		}
		if op == "edit" {
			d, err := changedDay(fs, "date", *date)
			if err != nil {
				return err
			}
			a, ok, err := svc.UpdateAppointment(ctx, *id, model.AppointmentPatch{
				Date:   d,
				Time:   changed(fs, "time", *at),
				Reason: changed(fs, "reason", *reason),
				Notes:  changed(fs, "notes", *notes),
			})
			return show(c, "appointment", *id, a, ok, err)
		}
		if err := fs.need("patient", "date"); err != nil {
			return err
		}
		d, err := parseDay(*date)
		if err != nil {
			return err
		}
		a, err := svc.CreateAppointment(ctx, model.Appointment{
			PatientID: *patient, Date: d, Time: *at, Reason: *reason, Notes: *notes,
		})
		if err != nil {
			return err
		}
		printJSON(c.out, a)
		return nil

	case "rm":
		if err := fs.parse(args); err != nil {
			return err
		}
		ok, err := svc.DeleteAppointment(ctx, *id)
		return c.removed("appointment", *id, ok, err)
	}
	return errUsage
}

func (c *cli) visits(ctx context.Context, args []string) error {
	op, args, err := sub(args)
	if err != nil {
		return err
	}
	svc := c.app.Schedule
	fs := newFlags("visits "+op, c.errOut)
	id := fs.String("id", "", "visit id")

	switch op {
	case "list":
		patient := fs.String("patient", "", "only this patient's visits")
		if err := fs.parse(args); err != nil {
			return err
		}
		var items []model.Visit
		if *patient != "" {
			items, err = svc.ListVisitsByPatient(ctx, *patient)
		} else {
			items, err = svc.ListVisits(ctx)
		}
		if err != nil {
			return err
		}
		printJSON(c.out, items)
		return nil

	case "add":
		patient := fs.String("patient", "", "patient id")
		chair := fs.String("chair", "", "chair id")
		date := fs.String("date", "", "date YYYY-MM-DD (default today)")
		notes := fs.String("notes", "", "notes")
		if err := fs.parse(args); err != nil {
			return err
		}
		d, err := parseDay(*date)
		if err != nil {
			return err
		}
		if d.IsZero() {
			d = time.Now().UTC().Truncate(24 * time.Hour)
		}
		v, err := svc.RecordVisit(ctx, model.Visit{PatientID: *patient, ChairID: *chair, Date: d, Notes: *notes})
		if err != nil {
			return err
		}
		printJSON(c.out, v)
		return nil

	case "edit":
		date := fs.String("date", "", "date YYYY-MM-DD")
		notes := fs.String("notes", "", "notes")
		if err := fs.parse(args); err != nil {
			return err
		}
		d, err := changedDay(fs, "date", *date)
		if err != nil {
			return err
		}
		v, ok, err := svc.UpdateVisit(ctx, *id, model.VisitPatch{Date: d, Notes: changed(fs, "notes", *notes)})
		return show(c, "visit", *id, v, ok, err)

	case "rm":
		if err := fs.parse(args); err != nil {
			return err
		}
		ok, err := svc.DeleteVisit(ctx, *id)
		return c.removed("visit", *id, ok, err)
	}
	return errUsage
}
