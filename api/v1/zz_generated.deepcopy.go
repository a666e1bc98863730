// Copyright Contributors to the KubeOpenCode project

package v1

import (
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	runtime "k8s.io/apimachinery/pkg/runtime"
)

// DeepCopyInto copies the receiver into out.
func (in *EnvFromSecretRef) DeepCopyInto(out *EnvFromSecretRef) {
	*out = *in
}

// DeepCopy returns a deep copy of the receiver.
func (in *EnvFromSecretRef) DeepCopy() *EnvFromSecretRef {
	if in == nil {
		return nil
	}
	out := new(EnvFromSecretRef)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (in *ToolsSpec) DeepCopyInto(out *ToolsSpec) {
	*out = *in
	if in.Local != nil {
		out.Local = make([]string, len(in.Local))
		copy(out.Local, in.Local)
	}
	if in.Remote != nil {
		out.Remote = make([]string, len(in.Remote))
		copy(out.Remote, in.Remote)
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *ToolsSpec) DeepCopy() *ToolsSpec {
	if in == nil {
		return nil
	}
	out := new(ToolsSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (in *DocsRunSpec) DeepCopyInto(out *DocsRunSpec) {
	*out = *in
}

// DeepCopy returns a deep copy of the receiver.
func (in *DocsRunSpec) DeepCopy() *DocsRunSpec {
	if in == nil {
		return nil
	}
	out := new(DocsRunSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (in *DocsRunStatus) DeepCopyInto(out *DocsRunStatus) {
	*out = *in
	if in.LastUpdate != nil {
		t := in.LastUpdate.DeepCopy()
		out.LastUpdate = &t
	}
	if in.Conditions != nil {
		out.Conditions = make([]metav1.Condition, len(in.Conditions))
		for i := range in.Conditions {
			in.Conditions[i].DeepCopyInto(&out.Conditions[i])
		}
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *DocsRunStatus) DeepCopy() *DocsRunStatus {
	if in == nil {
		return nil
	}
	out := new(DocsRunStatus)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (in *DocsRun) DeepCopyInto(out *DocsRun) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	out.Spec = in.Spec
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy returns a deep copy of the receiver.
func (in *DocsRun) DeepCopy() *DocsRun {
	if in == nil {
		return nil
	}
	out := new(DocsRun)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *DocsRun) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies the receiver into out.
func (in *DocsRunList) DeepCopyInto(out *DocsRunList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]DocsRun, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *DocsRunList) DeepCopy() *DocsRunList {
	if in == nil {
		return nil
	}
	out := new(DocsRunList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *DocsRunList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies the receiver into out.
func (in *CodeRunSpec) DeepCopyInto(out *CodeRunSpec) {
	*out = *in
	if in.Tools != nil {
		out.Tools = in.Tools.DeepCopy()
	}
	if in.Env != nil {
		out.Env = make(map[string]string, len(in.Env))
		for k, v := range in.Env {
			out.Env[k] = v
		}
	}
	if in.EnvFromSecrets != nil {
		out.EnvFromSecrets = make([]EnvFromSecretRef, len(in.EnvFromSecrets))
		copy(out.EnvFromSecrets, in.EnvFromSecrets)
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *CodeRunSpec) DeepCopy() *CodeRunSpec {
	if in == nil {
		return nil
	}
	out := new(CodeRunSpec)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (in *CodeRunStatus) DeepCopyInto(out *CodeRunStatus) {
	*out = *in
	if in.LastUpdate != nil {
		t := in.LastUpdate.DeepCopy()
		out.LastUpdate = &t
	}
	if in.Conditions != nil {
		out.Conditions = make([]metav1.Condition, len(in.Conditions))
		for i := range in.Conditions {
			in.Conditions[i].DeepCopyInto(&out.Conditions[i])
		}
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *CodeRunStatus) DeepCopy() *CodeRunStatus {
	if in == nil {
		return nil
	}
	out := new(CodeRunStatus)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyInto copies the receiver into out.
func (in *CodeRun) DeepCopyInto(out *CodeRun) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ObjectMeta.DeepCopyInto(&out.ObjectMeta)
	in.Spec.DeepCopyInto(&out.Spec)
	in.Status.DeepCopyInto(&out.Status)
}

// DeepCopy returns a deep copy of the receiver.
func (in *CodeRun) DeepCopy() *CodeRun {
	if in == nil {
		return nil
	}
	out := new(CodeRun)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *CodeRun) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}

// DeepCopyInto copies the receiver into out.
func (in *CodeRunList) DeepCopyInto(out *CodeRunList) {
	*out = *in
	out.TypeMeta = in.TypeMeta
	in.ListMeta.DeepCopyInto(&out.ListMeta)
	if in.Items != nil {
		out.Items = make([]CodeRun, len(in.Items))
		for i := range in.Items {
			in.Items[i].DeepCopyInto(&out.Items[i])
		}
	}
}

// DeepCopy returns a deep copy of the receiver.
func (in *CodeRunList) DeepCopy() *CodeRunList {
	if in == nil {
		return nil
	}
	out := new(CodeRunList)
	in.DeepCopyInto(out)
	return out
}

// DeepCopyObject implements runtime.Object.
func (in *CodeRunList) DeepCopyObject() runtime.Object {
	if c := in.DeepCopy(); c != nil {
		return c
	}
	return nil
}
